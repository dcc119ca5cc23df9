package reconciler

import (
	"context"
	"time"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
)

// Operation describes what should happen to a rule group.
type Operation string

const (
	// OperationUpsert pushes the group to the Ruler and merges it into an
	// OpenMetricsRule.
	OperationUpsert Operation = "Upsert"

	// OperationDelete removes the group from the Ruler. Cluster resources
	// are left untouched.
	OperationDelete Operation = "Delete"
)

// ChangeSource indicates where a change originated.
type ChangeSource string

const (
	// SourceKubernetes indicates the change came from Kubernetes informers.
	SourceKubernetes ChangeSource = "Kubernetes"

	// SourceManual indicates the change was triggered manually (e.g., CLI or API call).
	SourceManual ChangeSource = "Manual"
)

// ChangeEvent represents one rule group of one tenant that needs syncing.
type ChangeEvent struct {
	// TenantID is the Ruler tenant (X-Scope-OrgID).
	TenantID string

	// Namespace is both the Kubernetes namespace and the Ruler rule namespace.
	Namespace string

	// ResourceName is the OpenMetricsRule the group was read from, if any.
	ResourceName string

	// Group is the rule group payload.
	Group monitoringv1.RuleGroup

	// Operation describes what kind of change occurred.
	Operation Operation

	// Timestamp is when the change was detected.
	Timestamp time.Time

	// Source indicates where the change came from.
	Source ChangeSource
}

// ReconcileResult represents the outcome of a reconciliation attempt.
type ReconcileResult struct {
	// Requeue indicates whether the request should be requeued for retry.
	Requeue bool

	// RequeueAfter specifies when to requeue (0 means use default backoff).
	RequeueAfter time.Duration

	// Fatal marks an error that retrying cannot fix. The request is failed
	// immediately.
	Fatal bool

	// Error is any error that occurred during reconciliation.
	Error error
}

// ReconcileRequest represents a request to sync one rule group of one tenant.
type ReconcileRequest struct {
	TenantID  string
	Namespace string
	Group     monitoringv1.RuleGroup
	Operation Operation

	// Attempt is the current retry attempt number (starts at 1).
	Attempt int

	// LastError is the error from the previous attempt, if any.
	LastError error
}

// Key identifies the request for deduplication and status tracking.
func (r ReconcileRequest) Key() string {
	return requestKey(r.TenantID, r.Namespace, r.Group.Name)
}

func requestKey(tenantID, namespace, group string) string {
	return tenantID + "/" + namespace + "/" + group
}

// Reconciler processes a single reconciliation request.
type Reconciler interface {
	// Reconcile must be idempotent: running it again with the same input
	// leaves the Ruler and the cluster in the same state.
	Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult
}

// ChangeDetector is the interface for components that detect changes in resources.
type ChangeDetector interface {
	// Start begins watching for changes.
	// The detector should send change events to the provided channel.
	Start(ctx context.Context, changes chan<- ChangeEvent) error

	// Stop gracefully stops the change detector.
	Stop() error

	// GetSource returns the source type this detector monitors.
	GetSource() ChangeSource
}

// ManagerConfig holds configuration for the Manager.
type ManagerConfig struct {
	// WorkerCount is the number of concurrent reconciliation workers.
	// Defaults to 2 if not specified.
	WorkerCount int

	// MaxRetries is the maximum number of attempts for a failing request.
	// Defaults to 5 if not specified.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	// Defaults to 1 second if not specified.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration for retries.
	// Defaults to 5 minutes if not specified.
	MaxBackoff time.Duration

	// ReconcileTimeout bounds a single Reconcile call.
	// Defaults to 30 seconds if not specified.
	ReconcileTimeout time.Duration

	// EventBuffer is the capacity of the change event channel.
	// Defaults to 100 if not specified.
	EventBuffer int
}

// ReconcileStatus represents the current status of reconciliation for a rule group.
type ReconcileStatus struct {
	TenantID  string
	Namespace string
	Group     string
	Operation Operation

	// LastReconcileTime is when the group was last successfully reconciled.
	LastReconcileTime *time.Time

	// LastError is the most recent error, if any.
	LastError string

	// RetryCount is the number of retry attempts.
	RetryCount int

	// State describes the current reconciliation state.
	State ReconcileState
}

// ReconcileState represents the state of a rule group's reconciliation.
type ReconcileState string

const (
	// StatePending means the group is awaiting reconciliation.
	StatePending ReconcileState = "Pending"

	// StateReconciling means reconciliation is in progress.
	StateReconciling ReconcileState = "Reconciling"

	// StateSynced means the group is successfully reconciled.
	StateSynced ReconcileState = "Synced"

	// StateError means reconciliation failed and will be retried.
	StateError ReconcileState = "Error"

	// StateFailed means reconciliation failed permanently, either because
	// the error is fatal or because max retries were exceeded.
	StateFailed ReconcileState = "Failed"
)
