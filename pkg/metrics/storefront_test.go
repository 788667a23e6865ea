package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.IncCheckoutSubmission(OutcomeSuccess)
	m.IncCheckoutSubmission(OutcomeSuccess)
	m.IncCheckoutSubmission(OutcomeRejected)
	m.IncOrderPlaced()
	m.IncStatusTransition("received", "paid")
	m.IncNotification("")
	m.IncImageOperation("upload", OutcomeFailure)
	m.IncCartMutation("add")
	m.AddImportRows(OutcomeSuccess, 3)
	m.AddImportRows(OutcomeFailure, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	expectCounter(t, mfs, "joyeria_checkout_submissions_total", map[string]string{"outcome": OutcomeSuccess}, 2)
	expectCounter(t, mfs, "joyeria_checkout_submissions_total", map[string]string{"outcome": OutcomeRejected}, 1)
	expectCounter(t, mfs, "joyeria_orders_placed_total", nil, 1)
	expectCounter(t, mfs, "joyeria_order_status_transitions_total", map[string]string{"from": "received", "to": "paid"}, 1)
	expectCounter(t, mfs, "joyeria_order_notifications_total", map[string]string{"outcome": "unknown"}, 1)
	expectCounter(t, mfs, "joyeria_image_operations_total", map[string]string{"operation": "upload", "outcome": OutcomeFailure}, 1)
	expectCounter(t, mfs, "joyeria_cart_mutations_total", map[string]string{"operation": "add"}, 1)
	expectCounter(t, mfs, "joyeria_catalog_import_rows_total", map[string]string{"outcome": OutcomeSuccess}, 3)

	if _, err := fetchCounterValue(mfs, "joyeria_catalog_import_rows_total", map[string]string{"outcome": OutcomeFailure}); err == nil {
		t.Fatal("zero additions should not create a series")
	}
}

func TestNilStorefrontIsSafe(t *testing.T) {
	var m *Storefront
	m.IncCheckoutSubmission(OutcomeSuccess)
	m.IncOrderPlaced()
	m.IncCartMutation("add")

	unregistered := NewStorefront(nil)
	unregistered.IncNotification(OutcomeSuccess)
	unregistered.IncImageOperation("destroy", OutcomeSuccess)
}

func expectCounter(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string, want float64) {
	t.Helper()
	got, err := fetchCounterValue(mfs, name, labels)
	if err != nil {
		t.Fatalf("fetch %s: %v", name, err)
	}
	if got != want {
		t.Fatalf("expected %s=%v, got %v", name, want, got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	for key, value := range labels {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == key && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
