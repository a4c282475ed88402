package kafka

import "time"

// Topics для Kafka
const (
	TopicShipmentEvents  = "sms.shipment.events"
	TopicDeadLetterQueue = "sms.dlq" // Dead Letter Queue для failed messages
)

// ShipmentEvent представляет событие жизненного цикла отправления,
// публикуемое для downstream-потребителей (биллинг, аналитика, нотификации).
type ShipmentEvent struct {
	EventType      string                 `json:"event_type"`
	ShipmentID     string                 `json:"shipment_id"`
	TenantID       string                 `json:"tenant_id"`
	TrackingNumber string                 `json:"tracking_number"`
	Status         string                 `json:"status"`
	Timestamp      time.Time              `json:"timestamp"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NewShipmentEvent создает новое событие отправления.
func NewShipmentEvent(eventType, shipmentID, tenantID, trackingNumber, status string, metadata map[string]interface{}) *ShipmentEvent {
	return &ShipmentEvent{
		EventType:      eventType,
		ShipmentID:     shipmentID,
		TenantID:       tenantID,
		TrackingNumber: trackingNumber,
		Status:         status,
		Timestamp:      time.Now(),
		Metadata:       metadata,
	}
}
