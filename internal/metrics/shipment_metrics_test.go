package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewShipmentMetrics(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newShipmentMetricsWithRegisterer should not return nil")
	}

	if metrics.transitions == nil {
		t.Error("transitions counter vec should not be nil")
	}

	if metrics.transitionsRejected == nil {
		t.Error("transitionsRejected counter should not be nil")
	}

	if metrics.transitionConflicts == nil {
		t.Error("transitionConflicts counter should not be nil")
	}

	if metrics.transitionDuration == nil {
		t.Error("transitionDuration histogram should not be nil")
	}

	if metrics.trackingEvents == nil {
		t.Error("trackingEvents counter should not be nil")
	}

	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}

	if metrics.notifications == nil {
		t.Error("notifications counter vec should not be nil")
	}
}

func TestNewShipmentMetrics_ReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newShipmentMetricsWithRegisterer(registry)
	second := newShipmentMetricsWithRegisterer(registry)

	if first.transitionsRejected != second.transitionsRejected {
		t.Error("expected the already registered counter to be reused")
	}
	if first.transitions != second.transitions {
		t.Error("expected the already registered counter vec to be reused")
	}
	if first.transitionDuration != second.transitionDuration {
		t.Error("expected the already registered histogram to be reused")
	}
}

func TestRecordTransition(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTransition("in_transit")
	metrics.RecordTransition("in_transit")
	metrics.RecordTransition("delivered")

	metric := &dto.Metric{}
	counter, err := metrics.transitions.GetMetricWithLabelValues("in_transit")
	if err != nil {
		t.Fatalf("failed to get counter: %v", err)
	}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordTransitionRejected(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTransitionRejected()

	metric := &dto.Metric{}
	if err := metrics.transitionsRejected.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordTransitionConflict(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTransitionConflict()
	metrics.RecordTransitionConflict()

	metric := &dto.Metric{}
	if err := metrics.transitionConflicts.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordTransitionDuration(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTransitionDuration(100 * time.Millisecond)
	metrics.RecordTransitionDuration(500 * time.Millisecond)
	metrics.RecordTransitionDuration(1 * time.Second)

	metric := &dto.Metric{}
	if err := metrics.transitionDuration.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("expected 3 samples, got %d", metric.Histogram.GetSampleCount())
	}

	// 0.1 + 0.5 + 1.0 = 1.6
	sum := metric.Histogram.GetSampleSum()
	if sum < 1.5 || sum > 1.7 {
		t.Errorf("expected sum around 1.6, got %f", sum)
	}
}

func TestRecordTrackingAndOutboxEvents(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTrackingEvent()
	metrics.RecordTrackingEvent()
	metrics.RecordTrackingEvent()
	metrics.RecordOutboxEvent()

	metric := &dto.Metric{}
	if err := metrics.trackingEvents.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 3.0 {
		t.Errorf("expected 3 tracking events, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := metrics.outboxEvents.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 outbox event, got %f", metric.Counter.GetValue())
	}
}

func TestRecordNotification(t *testing.T) {
	metrics := newShipmentMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordNotification("shipment.status_changed")
	metrics.RecordNotification("shipment.status_changed")
	metrics.RecordNotification("shipment.delivered")

	counter, err := metrics.notifications.GetMetricWithLabelValues("shipment.status_changed")
	if err != nil {
		t.Fatalf("failed to get counter: %v", err)
	}

	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}
