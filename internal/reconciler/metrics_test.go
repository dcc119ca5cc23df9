package reconciler

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	m.ObserveRulerRequest("POST", 202, 10*time.Millisecond)

	if n := testutil.CollectAndCount(reg, "ruler_informer_ruler_requests_total"); n != 1 {
		t.Errorf("expected 1 ruler request series, got %d", n)
	}

	// Registering twice on the same registry must fail
	if _, err := NewMetrics(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestMetrics_ObserveRulerRequest(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	m.ObserveRulerRequest("POST", 202, time.Millisecond)
	m.ObserveRulerRequest("POST", 202, time.Millisecond)
	m.ObserveRulerRequest("DELETE", 0, time.Millisecond)

	if got := testutil.ToFloat64(m.rulerRequestsTotal.WithLabelValues("POST", "202")); got != 2 {
		t.Errorf("POST 202 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rulerRequestsTotal.WithLabelValues("DELETE", "none")); got != 1 {
		t.Errorf("DELETE none = %v, want 1", got)
	}
}

func TestMetrics_RecordReconcile(t *testing.T) {
	m, _ := NewMetrics(nil)

	m.recordReconcile(OperationUpsert, ReconcileResult{}, time.Millisecond)
	m.recordReconcile(OperationUpsert, ReconcileResult{Error: errors.New("x"), Requeue: true}, time.Millisecond)
	m.recordReconcile(OperationDelete, ReconcileResult{Error: errors.New("x"), Fatal: true}, time.Millisecond)

	tests := []struct {
		op     Operation
		result string
		want   float64
	}{
		{OperationUpsert, "success", 1},
		{OperationUpsert, "error", 1},
		{OperationDelete, "fatal", 1},
		{OperationDelete, "success", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.reconcileTotal.WithLabelValues(string(tt.op), tt.result))
		if got != tt.want {
			t.Errorf("reconcile_total{%s,%s} = %v, want %v", tt.op, tt.result, got, tt.want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	// None of these may panic
	m.ObserveRulerRequest("POST", 500, time.Second)
	m.recordEvent(SourceKubernetes, OperationUpsert)
	m.recordDropped()
	m.recordReconcile(OperationUpsert, ReconcileResult{}, time.Second)
	m.recordRetry(OperationUpsert)
	m.recordConflict()
	m.recordCreated()
	m.setQueueDepth(3)
	m.recordSuperseded(OperationDelete)
}

func TestResultLabel(t *testing.T) {
	if got := resultLabel(ReconcileResult{}); got != "success" {
		t.Errorf("resultLabel(success) = %q", got)
	}
	if got := resultLabel(ReconcileResult{Error: errors.New("x")}); got != "error" {
		t.Errorf("resultLabel(error) = %q", got)
	}
	if got := resultLabel(ReconcileResult{Error: errors.New("x"), Fatal: true}); got != "fatal" {
		t.Errorf("resultLabel(fatal) = %q", got)
	}
}
