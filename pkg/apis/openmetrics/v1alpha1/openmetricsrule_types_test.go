package v1alpha1

import (
	"encoding/json"
	"strings"
	"testing"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func TestOpenMetricsRule_HasTenant(t *testing.T) {
	rule := &OpenMetricsRule{Spec: OpenMetricsRuleSpec{Tenants: []string{"team-a", "team-b"}}}

	if !rule.HasTenant("team-b") {
		t.Error("expected team-b to be a tenant")
	}
	if rule.HasTenant("team-c") {
		t.Error("did not expect team-c to be a tenant")
	}
	if (&OpenMetricsRule{}).HasTenant("") {
		t.Error("empty tenant list must not match")
	}
}

func TestOpenMetricsRule_DeepCopyIsIndependent(t *testing.T) {
	orig := &OpenMetricsRule{
		ObjectMeta: metav1.ObjectMeta{Name: "r", Namespace: "ns", Labels: map[string]string{"a": "b"}},
		Spec: OpenMetricsRuleSpec{
			Tenants: []string{"team-a"},
			Groups: []monitoringv1.RuleGroup{{
				Name:  "g",
				Rules: []monitoringv1.Rule{{Alert: "A", Expr: intstr.FromString("up == 0")}},
			}},
		},
	}

	cp := orig.DeepCopy()
	cp.Spec.Tenants[0] = "team-z"
	cp.Spec.Groups[0].Name = "changed"
	cp.Spec.Groups[0].Rules[0].Alert = "B"
	cp.Labels["a"] = "c"

	if orig.Spec.Tenants[0] != "team-a" {
		t.Errorf("tenants aliased: %v", orig.Spec.Tenants)
	}
	if orig.Spec.Groups[0].Name != "g" || orig.Spec.Groups[0].Rules[0].Alert != "A" {
		t.Errorf("groups aliased: %+v", orig.Spec.Groups[0])
	}
	if orig.Labels["a"] != "b" {
		t.Errorf("labels aliased: %v", orig.Labels)
	}

	var obj runtime.Object = orig
	if _, ok := obj.DeepCopyObject().(*OpenMetricsRule); !ok {
		t.Error("DeepCopyObject returned wrong type")
	}
}

func TestOpenMetricsRuleStatus_FalseIsSerialized(t *testing.T) {
	data, err := json.Marshal(OpenMetricsRule{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"rulerUpdated":false`) {
		t.Errorf("expected rulerUpdated to be serialized, got %s", data)
	}
}

func TestAddToScheme(t *testing.T) {
	s := runtime.NewScheme()
	if err := AddToScheme(s); err != nil {
		t.Fatalf("AddToScheme: %v", err)
	}
	gvk := GroupVersion.WithKind(OpenMetricsRuleKind)
	if !s.Recognizes(gvk) {
		t.Errorf("scheme does not recognize %s", gvk)
	}
}
