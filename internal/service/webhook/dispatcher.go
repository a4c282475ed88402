package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

const (
	// Фиксированный таймаут на один исходящий POST.
	defaultDeliveryTimeout = 10 * time.Second

	headerEvent     = "X-Webhook-Event"
	headerSignature = "X-Webhook-Signature"
)

var (
	webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts grouped by result.",
	}, []string{"result"})
	webhookDeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sms_webhook_delivery_duration_seconds",
		Help:    "Duration of outbound webhook POST requests in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

// eventPayload — канонический плоский JSON, который получает подписчик.
type eventPayload struct {
	Event           string `json:"event"`
	TrackingNumber  string `json:"tracking_number"`
	NewStatus       string `json:"new_status"`
	ReferenceNumber string `json:"reference_number"`
	ShipmentID      string `json:"shipment_id"`
	Timestamp       string `json:"timestamp"`
}

// DispatcherOptions задаёт параметры диспетчера уведомлений.
type DispatcherOptions struct {
	Logger  *log.Entry
	Client  *http.Client
	Timeout time.Duration
}

// Option настраивает Dispatcher.
type Option func(*DispatcherOptions)

// WithLogger задаёт logger для диспетчера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *DispatcherOptions) {
		opts.Logger = logger
	}
}

// WithTimeout задаёт таймаут одного исходящего запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *DispatcherOptions) {
		opts.Timeout = timeout
	}
}

// WithHTTPClient подменяет HTTP-клиент (для тестов).
func WithHTTPClient(client *http.Client) Option {
	return func(opts *DispatcherOptions) {
		opts.Client = client
	}
}

// Dispatcher рассылает подписанные уведомления по активным подпискам тенанта.
// Доставка best-effort: без повторов, без влияния на вызывающую операцию.
type Dispatcher struct {
	webhooks domain.WebhookRepository
	client   *http.Client
	logger   *log.Entry
}

// NewDispatcher создаёт диспетчер исходящих уведомлений.
func NewDispatcher(webhooks domain.WebhookRepository, options ...Option) *Dispatcher {
	opts := DispatcherOptions{
		Timeout: defaultDeliveryTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "webhook-dispatcher")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDeliveryTimeout
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Dispatcher{
		webhooks: webhooks,
		client:   client,
		logger:   logger,
	}
}

// Notify доставляет событие по всем активным подпискам тенанта отправления.
// Каждая отправка изолирована: отказ одного получателя не мешает остальным
// и никогда не поднимается к вызывающему коду.
func (d *Dispatcher) Notify(shipment domain.Shipment, event string) {
	hooks, err := d.webhooks.ListActiveByTenant(shipment.TenantID)
	if err != nil {
		d.logger.WithError(err).WithFields(log.Fields{
			"tenant_id": shipment.TenantID,
			"event":     event,
		}).Warn("failed to load webhook subscriptions")
		return
	}
	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(eventPayload{
		Event:           event,
		TrackingNumber:  shipment.TrackingNumber,
		NewStatus:       string(shipment.Status),
		ReferenceNumber: shipment.ReferenceNumber,
		ShipmentID:      shipment.ID,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logger.WithError(err).WithField("event", event).Error("failed to marshal webhook payload")
		return
	}

	for _, hook := range hooks {
		d.deliver(hook, event, body)
	}
}

// deliver выполняет один POST. Любой сбой гасится внутри.
func (d *Dispatcher) deliver(hook domain.Webhook, event string, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(log.Fields{
				"url":   hook.URL,
				"event": event,
				"panic": r,
			}).Error("webhook delivery panicked")
			webhookDeliveries.WithLabelValues("panic").Inc()
		}
	}()

	start := time.Now()

	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.WithError(err).WithField("url", hook.URL).Error("failed to build webhook request")
		webhookDeliveries.WithLabelValues("request_error").Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEvent, event)
	if hook.Secret != "" {
		req.Header.Set(headerSignature, Sign(hook.Secret, body))
	}

	resp, err := d.client.Do(req)
	webhookDeliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.WithError(err).WithFields(log.Fields{
			"url":   hook.URL,
			"event": event,
		}).Error("webhook delivery failed")
		webhookDeliveries.WithLabelValues("network_error").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		d.logger.WithFields(log.Fields{
			"url":    hook.URL,
			"event":  event,
			"status": resp.StatusCode,
		}).Info("webhook delivered")
		webhookDeliveries.WithLabelValues("success").Inc()
		return
	}

	d.logger.WithFields(log.Fields{
		"url":    hook.URL,
		"event":  event,
		"status": resp.StatusCode,
	}).Warn("webhook returned non-2xx status")
	webhookDeliveries.WithLabelValues("http_error").Inc()
}

// NoopNotifier используется, когда рассылка уведомлений отключена.
type NoopNotifier struct {
	logger *log.Entry
}

// NewNoopNotifier создаёт notifier, который только логирует события.
func NewNoopNotifier(logger *log.Entry) *NoopNotifier {
	if logger == nil {
		logger = log.WithField("component", "webhook-noop")
	}
	return &NoopNotifier{logger: logger}
}

// Notify логирует событие и ничего не отправляет.
func (n *NoopNotifier) Notify(shipment domain.Shipment, event string) {
	n.logger.WithFields(log.Fields{
		"shipment_id": shipment.ID,
		"event":       event,
	}).Debug("webhook dispatch skipped (noop notifier)")
}

var _ domain.Notifier = (*Dispatcher)(nil)
var _ domain.Notifier = (*NoopNotifier)(nil)
