package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wordcoach/wordcoach/adapters/clock"
	"github.com/wordcoach/wordcoach/adapters/memory"
	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/domain/billing"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.ProviderRequests == nil {
		t.Error("ProviderRequests is nil")
	}
	if m.DuplicateSubscriptions == nil {
		t.Error("DuplicateSubscriptions is nil")
	}
	if m.DefaultSubscriptionsCreated == nil {
		t.Error("DefaultSubscriptionsCreated is nil")
	}
	if m.CustomerRecoveries == nil {
		t.Error("CustomerRecoveries is nil")
	}
	if m.PlanChanges == nil {
		t.Error("PlanChanges is nil")
	}
}

func TestProviderRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ProviderRequests.WithLabelValues("get_subscription", "ok").Inc()
	m.PlanChanges.WithLabelValues("upgrade", "ok").Add(2)
	m.DuplicateSubscriptions.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"wordcoach_provider_requests_total",
		"wordcoach_plan_changes_total",
		"wordcoach_duplicate_subscriptions_total",
	} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestWrapProviderCountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	inner := memory.NewProvider(clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	inner.SeedPrice(billing.Price{ID: "price_x", Currency: "usd", Interval: billing.IntervalMonth})
	p := metrics.WrapProvider(inner, m)

	ctx := context.Background()
	if _, err := p.GetPrice(ctx, "price_x"); err != nil {
		t.Fatalf("GetPrice: %v", err)
	}
	if _, err := p.GetPrice(ctx, "price_missing"); err == nil {
		t.Fatal("expected error for missing price")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	counts := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "wordcoach_provider_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			counts[labels["operation"]+"/"+labels["outcome"]] = metric.GetCounter().GetValue()
		}
	}
	if counts["get_price/ok"] != 1 {
		t.Errorf("get_price/ok = %v, want 1", counts["get_price/ok"])
	}
	if counts["get_price/error"] != 1 {
		t.Errorf("get_price/error = %v, want 1", counts["get_price/error"])
	}
}
