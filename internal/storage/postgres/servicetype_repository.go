package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

type serviceTypeRepository struct {
	db *sql.DB
}

// NewServiceTypeRepository создаёт PostgreSQL-реализацию ServiceTypeRepository.
func NewServiceTypeRepository(store *Store) domain.ServiceTypeRepository {
	return &serviceTypeRepository{db: store.DB()}
}

func (r *serviceTypeRepository) ListActive() ([]domain.ServiceType, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT code, name, base_rate_minor, rate_per_kg_minor, estimated_days_min, estimated_days_max, is_active
		FROM service_types
		WHERE is_active
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.ServiceType, 0)
	for rows.Next() {
		var t domain.ServiceType
		if err := rows.Scan(
			&t.Code, &t.Name, &t.BaseRateMinor, &t.RatePerKgMinor,
			&t.EstimatedDaysMin, &t.EstimatedDaysMax, &t.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan service type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service types: %w", err)
	}

	return types, nil
}

func (r *serviceTypeRepository) GetByCode(code string) (domain.ServiceType, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var t domain.ServiceType
	err := r.db.QueryRowContext(ctx, `
		SELECT code, name, base_rate_minor, rate_per_kg_minor, estimated_days_min, estimated_days_max, is_active
		FROM service_types
		WHERE code = $1
		  AND is_active
	`, code).Scan(
		&t.Code, &t.Name, &t.BaseRateMinor, &t.RatePerKgMinor,
		&t.EstimatedDaysMin, &t.EstimatedDaysMax, &t.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ServiceType{}, domain.ErrServiceTypeNotFound
		}
		return domain.ServiceType{}, fmt.Errorf("select service type: %w", err)
	}

	return t, nil
}

var _ domain.ServiceTypeRepository = (*serviceTypeRepository)(nil)
