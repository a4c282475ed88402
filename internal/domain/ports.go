package domain

import "time"

// Имена событий жизненного цикла отправления. Используются и в заголовке
// X-Webhook-Event, и в outbox-записях.
const (
	EventShipmentCreated       = "shipment.created"
	EventShipmentStatusChanged = "shipment.status_changed"
	EventShipmentDelivered     = "shipment.delivered"
)

// Notifier рассылает уведомления о событиях отправления.
// Реализация обязана быть best-effort: Notify никогда не возвращает ошибку
// вызывающему и не прерывает операцию, в которой произошло событие.
type Notifier interface {
	Notify(shipment Shipment, event string)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
