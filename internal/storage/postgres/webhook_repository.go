package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

type webhookRepository struct {
	db *sql.DB
}

// NewWebhookRepository создаёт PostgreSQL-реализацию WebhookRepository.
func NewWebhookRepository(store *Store) domain.WebhookRepository {
	return &webhookRepository{db: store.DB()}
}

func (r *webhookRepository) Create(webhook domain.Webhook) (domain.Webhook, error) {
	if err := webhook.Validate(); err != nil {
		return domain.Webhook{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if webhook.ID == "" {
		webhook.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, tenant_id, url, secret, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, webhook.ID, webhook.TenantID, webhook.URL, webhook.Secret, webhook.IsActive, webhook.CreatedAt, webhook.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Webhook{}, domain.ErrWebhookDuplicate
		}
		return domain.Webhook{}, fmt.Errorf("insert webhook: %w", err)
	}

	return webhook, nil
}

func (r *webhookRepository) ListActiveByTenant(tenantID string) ([]domain.Webhook, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, url, secret, is_active, created_at, updated_at
		FROM webhooks
		WHERE tenant_id = $1
		  AND is_active
		ORDER BY created_at ASC, id ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]domain.Webhook, 0)
	for rows.Next() {
		var webhook domain.Webhook
		if err := rows.Scan(
			&webhook.ID, &webhook.TenantID, &webhook.URL, &webhook.Secret,
			&webhook.IsActive, &webhook.CreatedAt, &webhook.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}

	return webhooks, nil
}

var _ domain.WebhookRepository = (*webhookRepository)(nil)
