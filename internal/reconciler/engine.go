package reconciler

import (
	"context"
	"errors"
	"fmt"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/rules"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// Phase names the engine step that failed.
type Phase string

const (
	// PhaseDiscovery is listing the OpenMetricsRules of the namespace.
	PhaseDiscovery Phase = "discovery"
	// PhaseApply is the server-side apply of the merged resource.
	PhaseApply Phase = "apply"
)

// ReconcileError is returned by Engine.Reconcile.
type ReconcileError struct {
	Phase        Phase
	TenantID     string
	Namespace    string
	Group        string
	ResourceName string
	Err          error
}

// Error names the failed phase together with the group and tenant.
func (e *ReconcileError) Error() string {
	switch e.Phase {
	case PhaseDiscovery:
		return fmt.Sprintf("failed to discover OpenMetricsRules in namespace %s for group %s of tenant %s: %v",
			e.Namespace, e.Group, e.TenantID, e.Err)
	default:
		return fmt.Sprintf("failed to apply OpenMetricsRule %s/%s for group %s of tenant %s: %v",
			e.Namespace, e.ResourceName, e.Group, e.TenantID, e.Err)
	}
}

// Unwrap returns the underlying discovery or apply error.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// IsPhase reports whether err is a *ReconcileError for phase.
func IsPhase(err error, phase Phase) bool {
	var rerr *ReconcileError
	return errors.As(err, &rerr) && rerr.Phase == phase
}

// ResourceDiscovery lists the OpenMetricsRules of a namespace.
type ResourceDiscovery interface {
	ListOpenMetricsRules(ctx context.Context, namespace string) ([]v1alpha1.OpenMetricsRule, error)
}

// SyncRequest is one rule group of one tenant to merge into the cluster.
type SyncRequest struct {
	TenantID  string
	Namespace string
	Group     monitoringv1.RuleGroup
}

// SyncOutcome describes a successful Engine.Reconcile.
type SyncOutcome struct {
	ResourceName string
	// Created is true when no resource held the group and one was synthesized.
	Created bool
	Stored  *v1alpha1.OpenMetricsRule
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMatcher replaces rules.FindGroupNamed as the group matcher.
func WithMatcher(m rules.GroupMatcher) EngineOption {
	return func(e *Engine) {
		e.matcher = m
	}
}

// WithMergeStrategy sets how a matched group is merged.
func WithMergeStrategy(s rules.MergeStrategy) EngineOption {
	return func(e *Engine) {
		e.strategy = s
	}
}

// WithConflictBackoff bounds the discover-merge-apply retries on conflict.
// Steps below 1 still run a single attempt.
func WithConflictBackoff(b wait.Backoff) EngineOption {
	return func(e *Engine) {
		e.conflictBackoff = b
	}
}

// WithEngineMetrics records conflicts and created resources.
func WithEngineMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine merges an incoming rule group into the OpenMetricsRule that owns it
// for the tenant, or synthesizes a new resource.
type Engine struct {
	discovery       ResourceDiscovery
	patcher         *StatusPatcher
	matcher         rules.GroupMatcher
	strategy        rules.MergeStrategy
	conflictBackoff wait.Backoff
	metrics         *Metrics
}

// NewEngine creates an engine using discovery for reads and patcher for
// writes. Defaults: FindGroupNamed, replace merge, retry.DefaultRetry.
func NewEngine(discovery ResourceDiscovery, patcher *StatusPatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		discovery:       discovery,
		patcher:         patcher,
		matcher:         rules.FindGroupNamed,
		strategy:        rules.MergeReplace,
		conflictBackoff: retry.DefaultRetry,
	}
	for _, opt := range opts {
		opt(e)
	}
	// retry.OnError never calls the function with zero steps
	if e.conflictBackoff.Steps < 1 {
		e.conflictBackoff.Steps = 1
	}
	return e
}

// Reconcile discovers the resources of req.Namespace, merges req.Group into
// the first resource of the tenant that already holds a group with that
// name, and applies the result with status.rulerUpdated=true. Without such a
// resource a new one named after the group is created.
//
// A conflicting apply restarts from discovery, bounded by the conflict
// backoff. Errors are *ReconcileError.
func (e *Engine) Reconcile(ctx context.Context, req SyncRequest) (*SyncOutcome, error) {
	var outcome *SyncOutcome
	attempt := 0

	err := retry.OnError(e.conflictBackoff, apierrors.IsConflict, func() error {
		attempt++
		if attempt > 1 {
			e.metrics.recordConflict()
			logging.Info("Engine", "Conflict applying group %s for tenant %s in %s, retrying (attempt %d)",
				req.Group.Name, req.TenantID, req.Namespace, attempt)
		}

		var err error
		outcome, err = e.reconcileOnce(ctx, req)
		return err
	})
	if err != nil {
		if apierrors.IsConflict(err) {
			e.metrics.recordConflict()
		}
		return nil, err
	}

	if outcome.Created {
		e.metrics.recordCreated()
	}
	return outcome, nil
}

func (e *Engine) reconcileOnce(ctx context.Context, req SyncRequest) (*SyncOutcome, error) {
	resources, err := e.discovery.ListOpenMetricsRules(ctx, req.Namespace)
	if err != nil {
		logging.Error("Engine", err, "Failed to discover OpenMetricsRules in %s", req.Namespace)
		return nil, &ReconcileError{
			Phase:     PhaseDiscovery,
			TenantID:  req.TenantID,
			Namespace: req.Namespace,
			Group:     req.Group.Name,
			Err:       err,
		}
	}

	target, created := e.resolveTarget(resources, req)

	stored, err := e.patcher.Apply(ctx, target.Name, target)
	if err != nil {
		return nil, &ReconcileError{
			Phase:        PhaseApply,
			TenantID:     req.TenantID,
			Namespace:    req.Namespace,
			Group:        req.Group.Name,
			ResourceName: target.Name,
			Err:          err,
		}
	}

	return &SyncOutcome{
		ResourceName: target.Name,
		Created:      created,
		Stored:       stored,
	}, nil
}

// resolveTarget returns the desired resource and whether it is new. The
// first tenant resource with a name match wins; tenant resources without a
// match are skipped.
func (e *Engine) resolveTarget(resources []v1alpha1.OpenMetricsRule, req SyncRequest) (*v1alpha1.OpenMetricsRule, bool) {
	for i := range resources {
		res := &resources[i]
		if !res.HasTenant(req.TenantID) {
			continue
		}

		idx, _, _ := e.matcher(rules.IndexGroups(res.Spec.Groups), req.Group.Name)
		if idx < 0 || idx >= len(res.Spec.Groups) {
			continue
		}

		merged := res.DeepCopy()
		merged.Spec.Groups = rules.MergeGroup(res.Spec.Groups, idx, req.Group, e.strategy)
		logging.Debug("Engine", "Merging group %s into %s/%s at position %d (%s)",
			req.Group.Name, res.Namespace, res.Name, idx, e.strategy)
		return merged, false
	}

	name := rules.ResourceNameForGroup(req.Group.Name)
	logging.Debug("Engine", "No OpenMetricsRule holds group %s for tenant %s, creating %s/%s",
		req.Group.Name, req.TenantID, req.Namespace, name)

	return &v1alpha1.OpenMetricsRule{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: req.Namespace,
		},
		Spec: v1alpha1.OpenMetricsRuleSpec{
			Tenants:     []string{req.TenantID},
			Description: rules.DefaultDescription,
			Groups:      []monitoringv1.RuleGroup{*req.Group.DeepCopy()},
		},
	}, true
}
