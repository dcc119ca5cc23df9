package v1alpha1

import (
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// OpenMetricsRuleKind is the kind name of the OpenMetricsRule resource.
const OpenMetricsRuleKind = "OpenMetricsRule"

// OpenMetricsRuleSpec defines the desired rule groups of a set of tenants.
type OpenMetricsRuleSpec struct {
	// Tenants lists the tenant IDs the groups apply to.
	// +kubebuilder:validation:MinItems=1
	Tenants []string `json:"tenants" yaml:"tenants"`

	// Description is a free-form note about where the rules come from.
	// +kubebuilder:validation:MaxLength=1000
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Groups are the Prometheus rule groups, in evaluation order.
	Groups []monitoringv1.RuleGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// OpenMetricsRuleStatus defines the observed propagation state.
type OpenMetricsRuleStatus struct {
	// RulerUpdated is set once the groups have been handed to the Ruler.
	// It records intent, not a confirmed write on the Ruler side.
	RulerUpdated bool `json:"rulerUpdated" yaml:"rulerUpdated"`
}

//+kubebuilder:object:root=true
//+kubebuilder:resource:shortName=omr
//+kubebuilder:printcolumn:name="Tenants",type="string",JSONPath=".spec.tenants"
//+kubebuilder:printcolumn:name="Ruler Updated",type="boolean",JSONPath=".status.rulerUpdated"
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// OpenMetricsRule is the Schema for the openmetricsrules API
type OpenMetricsRule struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   OpenMetricsRuleSpec   `json:"spec,omitempty"`
	Status OpenMetricsRuleStatus `json:"status,omitempty"`
}

// HasTenant reports whether tenantID is one of the resource's tenants.
func (r *OpenMetricsRule) HasTenant(tenantID string) bool {
	for _, t := range r.Spec.Tenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

//+kubebuilder:object:root=true

// OpenMetricsRuleList contains a list of OpenMetricsRule
type OpenMetricsRuleList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []OpenMetricsRule `json:"items"`
}

func init() {
	SchemeBuilder.Register(&OpenMetricsRule{}, &OpenMetricsRuleList{})
}
