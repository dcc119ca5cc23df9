// Package clienttest provides a fake cluster client that understands the
// server-side apply requests issued by the client package.
package clienttest

import (
	"context"
	"fmt"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	rclient "github.com/open-metrics-mt-kit/ruler-informer/internal/client"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
)

var openMetricsRuleResource = schema.GroupResource{
	Group:    v1alpha1.GroupVersion.Group,
	Resource: "openmetricsrules",
}

// ApplyCall is one server-side apply seen by the fake.
type ApplyCall struct {
	Object       *v1alpha1.OpenMetricsRule
	FieldManager string
	Force        bool
}

// Recorder records apply calls and lets tests inject failures.
type Recorder struct {
	// OnApply is called before an apply is executed with the 1-based call
	// number. A non-nil error fails the apply.
	OnApply func(n int, obj client.Object) error

	// OnList is called before a list. A non-nil error fails the list.
	OnList func(namespace string) error

	mu    sync.Mutex
	calls []ApplyCall
}

// Applies returns the recorded apply calls.
func (r *Recorder) Applies() []ApplyCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ApplyCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// NewFakeClient returns a fake client seeded with objs and its recorder.
// Apply patches are emulated with Create or Update, honouring a
// resourceVersion precondition.
func NewFakeClient(objs ...client.Object) (client.WithWatch, *Recorder) {
	rec := &Recorder{}
	c := fake.NewClientBuilder().
		WithScheme(rclient.NewScheme()).
		WithObjects(objs...).
		WithInterceptorFuncs(interceptor.Funcs{
			Patch: rec.patch,
			List:  rec.list,
		}).
		Build()
	return c, rec
}

func (r *Recorder) list(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
	if r.OnList != nil {
		lo := (&client.ListOptions{}).ApplyOptions(opts)
		if err := r.OnList(lo.Namespace); err != nil {
			return err
		}
	}
	return c.List(ctx, list, opts...)
}

func (r *Recorder) patch(ctx context.Context, c client.WithWatch, obj client.Object, patch client.Patch, opts ...client.PatchOption) error {
	if patch.Type() != types.ApplyPatchType {
		return c.Patch(ctx, obj, patch, opts...)
	}

	po := (&client.PatchOptions{}).ApplyOptions(opts)
	call := ApplyCall{
		FieldManager: po.FieldManager,
		Force:        po.Force != nil && *po.Force,
	}
	if rule, ok := obj.(*v1alpha1.OpenMetricsRule); ok {
		call.Object = rule.DeepCopy()
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	n := len(r.calls)
	r.mu.Unlock()

	if r.OnApply != nil {
		if err := r.OnApply(n, obj); err != nil {
			return err
		}
	}

	return emulateApply(ctx, c, obj)
}

func emulateApply(ctx context.Context, c client.WithWatch, obj client.Object) error {
	existing, ok := obj.DeepCopyObject().(client.Object)
	if !ok {
		return fmt.Errorf("unexpected object type %T", obj)
	}

	err := c.Get(ctx, client.ObjectKeyFromObject(obj), existing)
	if apierrors.IsNotFound(err) {
		obj.SetResourceVersion("")
		return c.Create(ctx, obj)
	}
	if err != nil {
		return err
	}

	if rv := obj.GetResourceVersion(); rv != "" && rv != existing.GetResourceVersion() {
		return Conflict(obj.GetName())
	}
	obj.SetResourceVersion(existing.GetResourceVersion())
	return c.Update(ctx, obj)
}

// Conflict returns the error the API server sends for a stale resourceVersion.
func Conflict(name string) error {
	return apierrors.NewConflict(openMetricsRuleResource, name,
		fmt.Errorf("the object has been modified; please apply your changes to the latest version and try again"))
}
