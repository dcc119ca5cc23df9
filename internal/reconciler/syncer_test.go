package reconciler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/ruler"
)

type gatewayCall struct {
	method    string
	tenantID  string
	namespace string
	group     string
}

type fakeGateway struct {
	mu        sync.Mutex
	calls     []gatewayCall
	pushErr   error
	removeErr error
}

func (f *fakeGateway) Push(_ context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gatewayCall{http.MethodPost, tenantID, namespace, group.Name})
	return f.pushErr
}

func (f *fakeGateway) Remove(_ context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gatewayCall{http.MethodDelete, tenantID, namespace, group.Name})
	return f.removeErr
}

func upsertRequest() ReconcileRequest {
	return ReconcileRequest{
		TenantID:  "team-a",
		Namespace: "monitoring",
		Group:     group("latency_p99", "HighLatency"),
		Operation: OperationUpsert,
		Attempt:   1,
	}
}

func newTestSyncer(gateway *fakeGateway, applier *recordingApplier, discoveryErr error) *RuleGroupSyncer {
	engine := NewEngine(&staticDiscovery{err: discoveryErr}, NewStatusPatcher(applier, nil), WithConflictBackoff(fastRetry))
	return NewRuleGroupSyncer(gateway, engine)
}

func TestRuleGroupSyncer_UpsertSuccess(t *testing.T) {
	gateway := &fakeGateway{}
	applier := &recordingApplier{}
	syncer := newTestSyncer(gateway, applier, nil)

	result := syncer.Reconcile(context.Background(), upsertRequest())

	require.NoError(t, result.Error)
	assert.False(t, result.Requeue)
	assert.False(t, result.Fatal)
	assert.Equal(t, []gatewayCall{{http.MethodPost, "team-a", "monitoring", "latency_p99"}}, gateway.calls)
	require.Len(t, applier.applied, 1)
	assert.Equal(t, "om-mt-k-ruler-src-latency-p99", applier.applied[0].Name)
}

func TestRuleGroupSyncer_StatusStampedWhenRulerRejects(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			gateway := &fakeGateway{pushErr: &ruler.UnexpectedStatusError{Method: http.MethodPost, StatusCode: status}}
			applier := &recordingApplier{}
			syncer := newTestSyncer(gateway, applier, nil)

			result := syncer.Reconcile(context.Background(), upsertRequest())

			require.Error(t, result.Error)
			assert.True(t, result.Fatal, "an unexpected ruler status is fatal")
			assert.False(t, result.Requeue)
			assert.True(t, ruler.IsUnexpectedStatus(result.Error))

			require.Len(t, applier.applied, 1, "the resource is applied regardless of the ruler outcome")
			assert.True(t, applier.applied[0].Status.RulerUpdated)
		})
	}
}

func TestRuleGroupSyncer_TransportErrorRequeues(t *testing.T) {
	gateway := &fakeGateway{pushErr: fmt.Errorf("%w: connection refused", ruler.ErrTransport)}
	applier := &recordingApplier{}
	syncer := newTestSyncer(gateway, applier, nil)

	result := syncer.Reconcile(context.Background(), upsertRequest())

	require.Error(t, result.Error)
	assert.True(t, result.Requeue)
	assert.False(t, result.Fatal)
	assert.ErrorIs(t, result.Error, ruler.ErrTransport)
	assert.Len(t, applier.applied, 1)
}

func TestRuleGroupSyncer_EngineErrorRequeues(t *testing.T) {
	gateway := &fakeGateway{}
	syncer := newTestSyncer(gateway, &recordingApplier{}, errors.New("list failed"))

	result := syncer.Reconcile(context.Background(), upsertRequest())

	require.Error(t, result.Error)
	assert.True(t, result.Requeue)
	assert.True(t, IsPhase(result.Error, PhaseDiscovery))
	assert.Len(t, gateway.calls, 1, "the ruler push still happens")
}

func TestRuleGroupSyncer_BothFail(t *testing.T) {
	gateway := &fakeGateway{pushErr: &ruler.UnexpectedStatusError{StatusCode: http.StatusInternalServerError}}
	syncer := newTestSyncer(gateway, &recordingApplier{}, errors.New("list failed"))

	result := syncer.Reconcile(context.Background(), upsertRequest())

	require.Error(t, result.Error)
	assert.True(t, result.Fatal)
	assert.True(t, ruler.IsUnexpectedStatus(result.Error))
	assert.True(t, IsPhase(result.Error, PhaseDiscovery))
}

func TestRuleGroupSyncer_DeleteOnlyRemovesFromRuler(t *testing.T) {
	gateway := &fakeGateway{}
	applier := &recordingApplier{}
	syncer := newTestSyncer(gateway, applier, nil)

	req := upsertRequest()
	req.Operation = OperationDelete
	result := syncer.Reconcile(context.Background(), req)

	require.NoError(t, result.Error)
	assert.Equal(t, []gatewayCall{{http.MethodDelete, "team-a", "monitoring", "latency_p99"}}, gateway.calls)
	assert.Empty(t, applier.applied)
}

func TestRuleGroupSyncer_DeleteUnexpectedStatusIsFatal(t *testing.T) {
	gateway := &fakeGateway{removeErr: &ruler.UnexpectedStatusError{Method: http.MethodDelete, StatusCode: http.StatusNotFound}}
	syncer := newTestSyncer(gateway, &recordingApplier{}, nil)

	req := upsertRequest()
	req.Operation = OperationDelete
	result := syncer.Reconcile(context.Background(), req)

	assert.True(t, result.Fatal)
}

func TestRuleGroupSyncer_UnknownOperation(t *testing.T) {
	gateway := &fakeGateway{}
	syncer := newTestSyncer(gateway, &recordingApplier{}, nil)

	req := upsertRequest()
	req.Operation = "Rename"
	result := syncer.Reconcile(context.Background(), req)

	assert.True(t, result.Fatal)
	assert.Empty(t, gateway.calls)
}
