package reconciler

import (
	"context"
	"fmt"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"go.uber.org/multierr"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/ruler"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// RulerGateway sends rule groups to the Ruler.
type RulerGateway interface {
	Push(ctx context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error
	Remove(ctx context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error
}

// GroupReconciler merges a rule group into the cluster.
type GroupReconciler interface {
	Reconcile(ctx context.Context, req SyncRequest) (*SyncOutcome, error)
}

// RuleGroupSyncer handles one change event: it propagates the group to the
// Ruler and, for upserts, merges it into an OpenMetricsRule.
type RuleGroupSyncer struct {
	gateway RulerGateway
	engine  GroupReconciler
}

// NewRuleGroupSyncer creates a syncer.
func NewRuleGroupSyncer(gateway RulerGateway, engine GroupReconciler) *RuleGroupSyncer {
	return &RuleGroupSyncer{
		gateway: gateway,
		engine:  engine,
	}
}

// Reconcile implements Reconciler.
//
// For an upsert the Ruler push and the cluster merge both run whatever the
// other's outcome, so status.rulerUpdated is stamped even when the Ruler
// rejects the group. A delete only removes the group from the Ruler.
func (s *RuleGroupSyncer) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	var err error

	switch req.Operation {
	case OperationUpsert:
		err = s.upsert(ctx, req)
	case OperationDelete:
		err = s.remove(ctx, req)
	default:
		return ReconcileResult{
			Fatal: true,
			Error: fmt.Errorf("unknown operation %q for group %s", req.Operation, req.Key()),
		}
	}

	return classify(err)
}

func (s *RuleGroupSyncer) upsert(ctx context.Context, req ReconcileRequest) error {
	var errs error

	if err := s.gateway.Push(ctx, req.TenantID, req.Namespace, req.Group); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to push group %s to ruler: %w", req.Group.Name, err))
	}

	outcome, err := s.engine.Reconcile(ctx, SyncRequest{
		TenantID:  req.TenantID,
		Namespace: req.Namespace,
		Group:     req.Group,
	})
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		logging.Info("RuleGroupSyncer", "Group %s of tenant %s stored in %s/%s (created=%t)",
			req.Group.Name, req.TenantID, req.Namespace, outcome.ResourceName, outcome.Created)
	}

	return errs
}

func (s *RuleGroupSyncer) remove(ctx context.Context, req ReconcileRequest) error {
	if err := s.gateway.Remove(ctx, req.TenantID, req.Namespace, req.Group); err != nil {
		return fmt.Errorf("failed to remove group %s from ruler: %w", req.Group.Name, err)
	}
	logging.Info("RuleGroupSyncer", "Group %s of tenant %s removed from ruler namespace %s",
		req.Group.Name, req.TenantID, req.Namespace)
	return nil
}

// classify turns an error into a result. An unexpected Ruler status is
// fatal; anything else is retried.
func classify(err error) ReconcileResult {
	if err == nil {
		return ReconcileResult{}
	}
	for _, e := range multierr.Errors(err) {
		if ruler.IsUnexpectedStatus(e) {
			return ReconcileResult{Fatal: true, Error: err}
		}
	}
	return ReconcileResult{Requeue: true, Error: err}
}
