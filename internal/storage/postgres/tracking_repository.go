package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

type trackingRepository struct {
	db *sql.DB
}

// NewTrackingRepository создаёт PostgreSQL-реализацию TrackingRepository.
func NewTrackingRepository(store *Store) domain.TrackingRepository {
	return &trackingRepository{db: store.DB()}
}

func (r *trackingRepository) Append(event domain.TrackingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_events (shipment_id, status, description, location, actor_id, occurred)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, event.ShipmentID, string(event.Status), event.Description, event.Location, event.ActorID, event.Occurred); err != nil {
		return fmt.Errorf("append tracking event: %w", err)
	}

	return nil
}

func (r *trackingRepository) List(shipmentID string) ([]domain.TrackingEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT shipment_id, status, description, location, actor_id, occurred
		FROM tracking_events
		WHERE shipment_id = $1
		ORDER BY occurred DESC, id DESC
	`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TrackingEvent, 0)
	for rows.Next() {
		var (
			event  domain.TrackingEvent
			status string
		)
		if err := rows.Scan(&event.ShipmentID, &status, &event.Description, &event.Location, &event.ActorID, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		event.Status = domain.ShipmentStatus(status)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking events: %w", err)
	}

	return events, nil
}

var _ domain.TrackingRepository = (*trackingRepository)(nil)
