package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/rest"
	toolscache "k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/cache"

	rclient "github.com/open-metrics-mt-kit/ruler-informer/internal/client"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// KubernetesDetector implements ChangeDetector with a controller-runtime
// informer on OpenMetricsRule.
//
// Every (tenant, group) pair of a resource that is not yet stamped with
// status.rulerUpdated becomes an upsert event. Resources the engine has
// already stamped are ignored, which keeps the engine's own apply from
// feeding back into the queue. Deleted resources, and groups or tenants
// dropped by an update, become delete events.
type KubernetesDetector struct {
	mu sync.RWMutex

	restConfig *rest.Config

	// namespace is the namespace to watch (empty for all namespaces)
	namespace string

	cache  cache.Cache
	scheme *runtime.Scheme

	changeChan chan<- ChangeEvent
	metrics    *Metrics

	ctx        context.Context
	cancelFunc context.CancelFunc

	running bool

	registration toolscache.ResourceEventHandlerRegistration
}

// NewKubernetesDetector creates a new Kubernetes change detector.
//
// Args:
//   - restConfig: Kubernetes REST configuration for API access
//   - namespace: Namespace to watch (empty string watches all namespaces)
//   - metrics: optional, counts dropped events
func NewKubernetesDetector(restConfig *rest.Config, namespace string, metrics *Metrics) *KubernetesDetector {
	return &KubernetesDetector{
		restConfig: restConfig,
		namespace:  namespace,
		scheme:     rclient.NewScheme(),
		metrics:    metrics,
	}
}

// Start begins watching OpenMetricsRules. It returns once the cache has synced.
func (d *KubernetesDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	d.ctx, d.cancelFunc = context.WithCancel(ctx)
	d.changeChan = changes
	d.running = true
	d.mu.Unlock()

	cacheOpts := cache.Options{
		Scheme: d.scheme,
	}
	if d.namespace != "" {
		cacheOpts.DefaultNamespaces = map[string]cache.Config{
			d.namespace: {},
		}
	}

	c, err := cache.New(d.restConfig, cacheOpts)
	if err != nil {
		d.fail()
		return fmt.Errorf("failed to create cache: %w", err)
	}

	d.mu.Lock()
	d.cache = c
	d.mu.Unlock()

	informer, err := c.GetInformer(d.ctx, &v1alpha1.OpenMetricsRule{})
	if err != nil {
		d.fail()
		return fmt.Errorf("failed to get informer for %s: %w", v1alpha1.OpenMetricsRuleKind, err)
	}

	registration, err := informer.AddEventHandler(d.eventHandler())
	if err != nil {
		d.fail()
		return fmt.Errorf("failed to add event handler for %s: %w", v1alpha1.OpenMetricsRuleKind, err)
	}

	d.mu.Lock()
	d.registration = registration
	d.mu.Unlock()

	go func() {
		if err := c.Start(d.ctx); err != nil {
			logging.Error("KubernetesDetector", err, "Cache stopped with error")
		}
	}()

	if !c.WaitForCacheSync(d.ctx) {
		d.fail()
		return fmt.Errorf("failed to sync cache")
	}

	logging.Info("KubernetesDetector", "Started watching OpenMetricsRules in %s", d.namespaceDisplay())
	return nil
}

func (d *KubernetesDetector) fail() {
	d.mu.Lock()
	d.running = false
	cancel := d.cancelFunc
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (d *KubernetesDetector) eventHandler() toolscache.ResourceEventHandler {
	return toolscache.ResourceEventHandlerFuncs{
		AddFunc:    d.handleAdd,
		UpdateFunc: d.handleUpdate,
		DeleteFunc: d.handleDelete,
	}
}

// handleAdd processes an add event from the informer.
func (d *KubernetesDetector) handleAdd(obj interface{}) {
	rule, ok := obj.(*v1alpha1.OpenMetricsRule)
	if !ok {
		logging.Warn("KubernetesDetector", "Unexpected object type %T in add event", obj)
		return
	}

	if rule.Status.RulerUpdated {
		return
	}
	d.emitAll(rule, OperationUpsert)
}

// handleUpdate processes an update event from the informer.
func (d *KubernetesDetector) handleUpdate(oldObj, newObj interface{}) {
	newRule, ok := newObj.(*v1alpha1.OpenMetricsRule)
	if !ok {
		logging.Warn("KubernetesDetector", "Unexpected object type %T in update event", newObj)
		return
	}

	if oldRule, ok := oldObj.(*v1alpha1.OpenMetricsRule); ok {
		d.emitRemoved(oldRule, newRule)
	}

	if newRule.Status.RulerUpdated {
		return
	}
	d.emitAll(newRule, OperationUpsert)
}

// handleDelete processes a delete event from the informer.
func (d *KubernetesDetector) handleDelete(obj interface{}) {
	// Objects deleted while the watch was down arrive wrapped
	if deletedState, ok := obj.(toolscache.DeletedFinalStateUnknown); ok {
		obj = deletedState.Obj
	}

	rule, ok := obj.(*v1alpha1.OpenMetricsRule)
	if !ok {
		logging.Warn("KubernetesDetector", "Unexpected object type %T in delete event", obj)
		return
	}

	d.emitAll(rule, OperationDelete)
}

// emitAll sends one event per (tenant, group) of rule.
func (d *KubernetesDetector) emitAll(rule *v1alpha1.OpenMetricsRule, op Operation) {
	now := time.Now()
	for _, tenant := range rule.Spec.Tenants {
		for i := range rule.Spec.Groups {
			d.sendChangeEvent(ChangeEvent{
				TenantID:     tenant,
				Namespace:    rule.Namespace,
				ResourceName: rule.Name,
				Group:        *rule.Spec.Groups[i].DeepCopy(),
				Operation:    op,
				Timestamp:    now,
				Source:       SourceKubernetes,
			})
		}
	}
}

// emitRemoved sends delete events for (tenant, group) pairs present in
// oldRule but gone from newRule.
func (d *KubernetesDetector) emitRemoved(oldRule, newRule *v1alpha1.OpenMetricsRule) {
	kept := make(map[string]bool)
	for _, tenant := range newRule.Spec.Tenants {
		for _, g := range newRule.Spec.Groups {
			kept[tenant+"/"+g.Name] = true
		}
	}

	now := time.Now()
	for _, tenant := range oldRule.Spec.Tenants {
		for i := range oldRule.Spec.Groups {
			g := oldRule.Spec.Groups[i]
			if kept[tenant+"/"+g.Name] {
				continue
			}
			d.sendChangeEvent(ChangeEvent{
				TenantID:     tenant,
				Namespace:    oldRule.Namespace,
				ResourceName: oldRule.Name,
				Group:        *g.DeepCopy(),
				Operation:    OperationDelete,
				Timestamp:    now,
				Source:       SourceKubernetes,
			})
		}
	}
}

// sendChangeEvent sends a change event without blocking the informer.
func (d *KubernetesDetector) sendChangeEvent(event ChangeEvent) {
	d.mu.RLock()
	changeChan := d.changeChan
	running := d.running
	d.mu.RUnlock()

	if !running || changeChan == nil {
		return
	}

	select {
	case changeChan <- event:
		logging.Debug("KubernetesDetector", "Emitted change event: %s %s/%s/%s",
			event.Operation, event.TenantID, event.Namespace, event.Group.Name)
	default:
		d.metrics.recordDropped()
		logging.Warn("KubernetesDetector", "Change event channel full, dropping event for %s/%s/%s",
			event.TenantID, event.Namespace, event.Group.Name)
	}
}

// Stop gracefully stops the Kubernetes detector.
func (d *KubernetesDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false

	if d.cancelFunc != nil {
		d.cancelFunc()
	}

	// Registrations go away with the cache
	d.registration = nil

	logging.Info("KubernetesDetector", "Stopped Kubernetes detector")
	return nil
}

// GetSource returns the change source type.
func (d *KubernetesDetector) GetSource() ChangeSource {
	return SourceKubernetes
}

// namespaceDisplay returns a display string for the namespace.
func (d *KubernetesDetector) namespaceDisplay() string {
	if d.namespace == "" {
		return "all namespaces"
	}
	return d.namespace
}
