package domain

import "time"

// TrackingEvent — одна неизменяемая запись в истории отправления.
// События никогда не обновляются и не удаляются; порядок отображения —
// от новых к старым.
type TrackingEvent struct {
	ShipmentID  string
	Status      ShipmentStatus
	Description string
	Location    string
	ActorID     string
	Occurred    time.Time
}
