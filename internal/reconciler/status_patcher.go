package reconciler

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// ReasonRulerUpdated is the Event reason recorded after a successful apply.
const ReasonRulerUpdated = "RulerUpdated"

// ResourceApplier writes an OpenMetricsRule with server-side apply.
type ResourceApplier interface {
	ApplyOpenMetricsRule(ctx context.Context, rule *v1alpha1.OpenMetricsRule) (*v1alpha1.OpenMetricsRule, error)
}

// EventRecorder creates Kubernetes Events for an object.
type EventRecorder interface {
	CreateEvent(ctx context.Context, obj client.Object, reason, message, eventType string) error
}

// StatusPatcher stamps status.rulerUpdated on a resource and applies it.
type StatusPatcher struct {
	applier ResourceApplier
	events  EventRecorder
}

// NewStatusPatcher creates a patcher. events may be nil.
func NewStatusPatcher(applier ResourceApplier, events EventRecorder) *StatusPatcher {
	return &StatusPatcher{
		applier: applier,
		events:  events,
	}
}

// Apply writes resource under resourceName with status.rulerUpdated set to
// true. The caller's object is not modified. Errors are logged and returned
// without retry.
func (p *StatusPatcher) Apply(ctx context.Context, resourceName string, resource *v1alpha1.OpenMetricsRule) (*v1alpha1.OpenMetricsRule, error) {
	desired := resource.DeepCopy()
	desired.Name = resourceName
	desired.Status.RulerUpdated = true

	stored, err := p.applier.ApplyOpenMetricsRule(ctx, desired)
	if err != nil {
		logging.Error("StatusPatcher", err, "Failed to apply OpenMetricsRule %s/%s", desired.Namespace, resourceName)
		return nil, err
	}

	if out, err := yaml.Marshal(stored); err != nil {
		logging.Warn("StatusPatcher", "Applied OpenMetricsRule %s/%s but could not render it: %v", stored.Namespace, stored.Name, err)
	} else {
		logging.Info("StatusPatcher", "Applied OpenMetricsRule %s/%s:\n%s", stored.Namespace, stored.Name, out)
	}

	if p.events != nil {
		msg := fmt.Sprintf("Applied %d rule group(s) for tenants %v", len(stored.Spec.Groups), stored.Spec.Tenants)
		if err := p.events.CreateEvent(ctx, stored, ReasonRulerUpdated, msg, corev1.EventTypeNormal); err != nil {
			logging.Warn("StatusPatcher", "Failed to record event for %s/%s: %v", stored.Namespace, stored.Name, err)
		}
	}

	return stored, nil
}
