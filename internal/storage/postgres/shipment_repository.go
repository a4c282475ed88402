package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

const shipmentColumns = `
	id, tenant_id, carrier_id, tracking_number, reference_number,
	sender_name, sender_street, sender_city, sender_state, sender_zip, sender_country, sender_phone,
	receiver_name, receiver_street, receiver_city, receiver_state, receiver_zip, receiver_country, receiver_phone,
	weight_kg, length_cm, width_cm, height_cm, contents,
	service_code, estimated_cost_minor, estimated_delivery,
	status, label_url, version, created_at, updated_at
`

type shipmentRepository struct {
	db *sql.DB
}

// NewShipmentRepository создаёт PostgreSQL-реализацию ShipmentRepository.
func NewShipmentRepository(store *Store) domain.ShipmentRepository {
	return &shipmentRepository{db: store.DB()}
}

func (r *shipmentRepository) Create(shipment domain.Shipment) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipments (`+shipmentColumns+`)
		VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,$10,$11,$12,
			$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,
			$25,$26,$27,
			$28,$29,$30,$31,$32
		)
	`,
		shipment.ID, shipment.TenantID, shipment.CarrierID, shipment.TrackingNumber, shipment.ReferenceNumber,
		shipment.Sender.Name, shipment.Sender.Street, shipment.Sender.City, shipment.Sender.State,
		shipment.Sender.ZipCode, shipment.Sender.Country, shipment.Sender.Phone,
		shipment.Receiver.Name, shipment.Receiver.Street, shipment.Receiver.City, shipment.Receiver.State,
		shipment.Receiver.ZipCode, shipment.Receiver.Country, shipment.Receiver.Phone,
		shipment.WeightKg, shipment.LengthCm, shipment.WidthCm, shipment.HeightCm, shipment.Contents,
		shipment.ServiceCode, shipment.EstimatedCostMinor, nullableTime(shipment.EstimatedDelivery),
		string(shipment.Status), shipment.LabelURL, shipment.Version, shipment.CreatedAt, shipment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTrackingNumberTaken
		}
		return fmt.Errorf("insert shipment: %w", err)
	}

	return nil
}

func (r *shipmentRepository) Get(id string) (domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE id = $1
	`, id)

	shipment, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Shipment{}, domain.ErrShipmentNotFound
		}
		return domain.Shipment{}, fmt.Errorf("select shipment: %w", err)
	}

	return shipment, nil
}

func (r *shipmentRepository) GetByTrackingNumber(trackingNumber string) (domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE tracking_number = $1
	`, trackingNumber)

	shipment, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Shipment{}, domain.ErrShipmentNotFound
		}
		return domain.Shipment{}, fmt.Errorf("select shipment by tracking number: %w", err)
	}

	return shipment, nil
}

func (r *shipmentRepository) ListByTenant(tenantID string, status domain.ShipmentStatus, limit int) ([]domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT ` + shipmentColumns + `
		FROM shipments
		WHERE tenant_id = $1
	`
	args := []any{tenantID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	shipments := make([]domain.Shipment, 0)
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment row: %w", err)
		}
		shipments = append(shipments, shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipment rows: %w", err)
	}

	return shipments, nil
}

func (r *shipmentRepository) Save(shipment domain.Shipment) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET carrier_id = $1,
		    tracking_number = $2,
		    reference_number = $3,
		    status = $4,
		    label_url = $5,
		    estimated_cost_minor = $6,
		    estimated_delivery = $7,
		    version = version + 1,
		    updated_at = $8
		WHERE id = $9
		  AND version = $10
	`,
		shipment.CarrierID,
		shipment.TrackingNumber,
		shipment.ReferenceNumber,
		string(shipment.Status),
		shipment.LabelURL,
		shipment.EstimatedCostMinor,
		nullableTime(shipment.EstimatedDelivery),
		shipment.UpdatedAt,
		shipment.ID,
		shipment.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTrackingNumberTaken
		}
		return fmt.Errorf("update shipment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.shipmentExists(ctx, shipment.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrShipmentNotFound
		}
		return domain.ErrShipmentVersionConflict
	}

	return nil
}

func (r *shipmentRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrShipmentNotFound
	}

	return nil
}

func (r *shipmentRepository) shipmentExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM shipments WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check shipment exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (domain.Shipment, error) {
	var (
		shipment          domain.Shipment
		status            string
		estimatedDelivery sql.NullTime
	)

	err := row.Scan(
		&shipment.ID, &shipment.TenantID, &shipment.CarrierID, &shipment.TrackingNumber, &shipment.ReferenceNumber,
		&shipment.Sender.Name, &shipment.Sender.Street, &shipment.Sender.City, &shipment.Sender.State,
		&shipment.Sender.ZipCode, &shipment.Sender.Country, &shipment.Sender.Phone,
		&shipment.Receiver.Name, &shipment.Receiver.Street, &shipment.Receiver.City, &shipment.Receiver.State,
		&shipment.Receiver.ZipCode, &shipment.Receiver.Country, &shipment.Receiver.Phone,
		&shipment.WeightKg, &shipment.LengthCm, &shipment.WidthCm, &shipment.HeightCm, &shipment.Contents,
		&shipment.ServiceCode, &shipment.EstimatedCostMinor, &estimatedDelivery,
		&status, &shipment.LabelURL, &shipment.Version, &shipment.CreatedAt, &shipment.UpdatedAt,
	)
	if err != nil {
		return domain.Shipment{}, err
	}

	shipment.Status = domain.ShipmentStatus(status)
	if estimatedDelivery.Valid {
		shipment.EstimatedDelivery = estimatedDelivery.Time.UTC()
	}

	return shipment, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.ShipmentRepository = (*shipmentRepository)(nil)
