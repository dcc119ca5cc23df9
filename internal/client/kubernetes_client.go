package client

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
)

// FieldManager is the server-side apply field manager used for every write.
const FieldManager = "openmetricsrule"

// EventSource is the component name recorded on Kubernetes Events.
const EventSource = "ruler-informer"

// NewScheme returns a scheme with the standard Kubernetes types and the
// OpenMetricsRule types registered.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1alpha1.AddToScheme(scheme))
	return scheme
}

// LoadRestConfig loads a REST config from the given kubeconfig path. An empty
// path falls back to controller-runtime's standard detection (KUBECONFIG,
// in-cluster config, ~/.kube/config).
func LoadRestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig %s: %w", kubeconfig, err)
		}
		return cfg, nil
	}

	cfg, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
	}
	return cfg, nil
}

// KubernetesClient reads and writes OpenMetricsRule resources through
// controller-runtime.
type KubernetesClient struct {
	client.Client
	scheme *runtime.Scheme
}

// NewKubernetesClient creates a client for the given REST config and checks
// that the OpenMetricsRule CRD is served by the cluster.
func NewKubernetesClient(config *rest.Config) (*KubernetesClient, error) {
	scheme := NewScheme()

	k8sClient, err := client.New(config, client.Options{
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	kc := &KubernetesClient{
		Client: k8sClient,
		scheme: scheme,
	}

	if err := kc.validateCRDs(context.Background()); err != nil {
		return nil, fmt.Errorf("CRD validation failed: %w", err)
	}

	return kc, nil
}

// NewKubernetesClientFromClient wraps an existing controller-runtime client.
// The client's scheme must know the OpenMetricsRule types.
func NewKubernetesClientFromClient(c client.Client) *KubernetesClient {
	return &KubernetesClient{
		Client: c,
		scheme: c.Scheme(),
	}
}

// Scheme returns the runtime scheme used by this client.
func (k *KubernetesClient) Scheme() *runtime.Scheme {
	return k.scheme
}

// DiscoverOpenMetricsRules lists the OpenMetricsRules of a namespace in the
// order returned by the reader.
func DiscoverOpenMetricsRules(ctx context.Context, reader client.Reader, namespace string) ([]v1alpha1.OpenMetricsRule, error) {
	list := &v1alpha1.OpenMetricsRuleList{}
	if err := reader.List(ctx, list, client.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("failed to list OpenMetricsRules in namespace %s: %w", namespace, err)
	}
	return list.Items, nil
}

// ListOpenMetricsRules lists the OpenMetricsRules of a namespace.
func (k *KubernetesClient) ListOpenMetricsRules(ctx context.Context, namespace string) ([]v1alpha1.OpenMetricsRule, error) {
	return DiscoverOpenMetricsRules(ctx, k.Client, namespace)
}

// GetOpenMetricsRule retrieves a single OpenMetricsRule.
func (k *KubernetesClient) GetOpenMetricsRule(ctx context.Context, name, namespace string) (*v1alpha1.OpenMetricsRule, error) {
	rule := &v1alpha1.OpenMetricsRule{}
	if err := k.Get(ctx, client.ObjectKey{Name: name, Namespace: namespace}, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ApplyOpenMetricsRule writes the desired spec and status of rule with a
// forced server-side apply owned by FieldManager. A non-empty
// resourceVersion on rule is sent as a precondition, so a concurrent writer
// makes the apply fail with a Conflict.
func (k *KubernetesClient) ApplyOpenMetricsRule(ctx context.Context, rule *v1alpha1.OpenMetricsRule) (*v1alpha1.OpenMetricsRule, error) {
	obj := applyBody(rule)

	if err := k.Patch(ctx, obj, client.Apply, client.FieldOwner(FieldManager), client.ForceOwnership); err != nil {
		return nil, fmt.Errorf("failed to apply OpenMetricsRule %s/%s: %w", rule.Namespace, rule.Name, err)
	}

	return obj, nil
}

// applyBody strips everything the apply must not own (managed fields, uid,
// timestamps, labels set by others) from rule.
func applyBody(rule *v1alpha1.OpenMetricsRule) *v1alpha1.OpenMetricsRule {
	return &v1alpha1.OpenMetricsRule{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.GroupVersion.String(),
			Kind:       v1alpha1.OpenMetricsRuleKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:            rule.Name,
			Namespace:       rule.Namespace,
			ResourceVersion: rule.ResourceVersion,
		},
		Spec:   *rule.Spec.DeepCopy(),
		Status: rule.Status,
	}
}

// CreateEvent creates a Kubernetes Event for the given object.
func (k *KubernetesClient) CreateEvent(ctx context.Context, obj client.Object, reason, message, eventType string) error {
	gvk, err := k.GroupVersionKindFor(obj)
	if err != nil {
		return fmt.Errorf("failed to get GroupVersionKind for object: %w", err)
	}

	now := metav1.NewTime(time.Now())
	event := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: obj.GetName() + "-",
			Namespace:    obj.GetNamespace(),
		},
		InvolvedObject: corev1.ObjectReference{
			APIVersion: gvk.GroupVersion().String(),
			Kind:       gvk.Kind,
			Name:       obj.GetName(),
			Namespace:  obj.GetNamespace(),
			UID:        obj.GetUID(),
		},
		Reason:         reason,
		Message:        message,
		Type:           eventType,
		Source:         corev1.EventSource{Component: EventSource},
		FirstTimestamp: now,
		LastTimestamp:  now,
		Count:          1,
	}

	if err := k.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create Kubernetes Event: %w", err)
	}

	return nil
}

// validateCRDs lists OpenMetricsRules in the default namespace; this fails
// when the CRD is not installed.
func (k *KubernetesClient) validateCRDs(ctx context.Context) error {
	if _, err := k.ListOpenMetricsRules(ctx, metav1.NamespaceDefault); err != nil {
		return fmt.Errorf("OpenMetricsRule CRD not available: %w", err)
	}
	return nil
}
