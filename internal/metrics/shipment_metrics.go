package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShipmentMetrics содержит метрики движка статусов и истории трекинга.
type ShipmentMetrics struct {
	// Счётчики переходов
	transitions         *prometheus.CounterVec
	transitionsRejected prometheus.Counter
	transitionConflicts prometheus.Counter

	// Гистограмма времени выполнения перехода
	transitionDuration prometheus.Histogram

	// Счётчики событий
	trackingEvents prometheus.Counter
	outboxEvents   prometheus.Counter
	notifications  *prometheus.CounterVec
}

// NewShipmentMetrics создаёт новый экземпляр метрик движка.
func NewShipmentMetrics() *ShipmentMetrics {
	return newShipmentMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newShipmentMetricsWithRegisterer(registerer prometheus.Registerer) *ShipmentMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShipmentMetrics{
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "sms_transitions_total",
			Help: "Total number of successful status transitions by target status",
		}, []string{"status"}),
		transitionsRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sms_transitions_rejected_total",
			Help: "Total number of transitions rejected by the transition table",
		}),
		transitionConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sms_transition_conflicts_total",
			Help: "Total number of transitions aborted due to concurrent status change",
		}),
		transitionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "sms_transition_duration_seconds",
			Help:    "Duration of status transition operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		trackingEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sms_tracking_events_total",
			Help: "Total number of tracking history events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sms_outbox_events_total",
			Help: "Total number of events enqueued to the transactional outbox",
		}),
		notifications: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "sms_notifications_total",
			Help: "Total number of notification dispatches by event name",
		}, []string{"event"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordTransition увеличивает счётчик успешных переходов в целевой статус.
func (m *ShipmentMetrics) RecordTransition(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

// RecordTransitionRejected увеличивает счётчик отклонённых переходов.
func (m *ShipmentMetrics) RecordTransitionRejected() {
	m.transitionsRejected.Inc()
}

// RecordTransitionConflict увеличивает счётчик конкурентных конфликтов.
func (m *ShipmentMetrics) RecordTransitionConflict() {
	m.transitionConflicts.Inc()
}

// RecordTransitionDuration записывает время выполнения перехода.
func (m *ShipmentMetrics) RecordTransitionDuration(duration time.Duration) {
	m.transitionDuration.Observe(duration.Seconds())
}

// RecordTrackingEvent увеличивает счётчик записей истории.
func (m *ShipmentMetrics) RecordTrackingEvent() {
	m.trackingEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ShipmentMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordNotification увеличивает счётчик рассылок по имени события.
func (m *ShipmentMetrics) RecordNotification(event string) {
	m.notifications.WithLabelValues(event).Inc()
}
