package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

// webhookRepositoryInMemory хранит подписки тенантов в памяти.
type webhookRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Webhook
}

// NewWebhookRepository создаёт in-memory реализацию WebhookRepository.
func NewWebhookRepository() domain.WebhookRepository {
	return &webhookRepositoryInMemory{items: make(map[string]domain.Webhook)}
}

// Create регистрирует подписку, проверяя инварианты и уникальность (tenant, url).
func (r *webhookRepositoryInMemory) Create(webhook domain.Webhook) (domain.Webhook, error) {
	if err := webhook.Validate(); err != nil {
		return domain.Webhook{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.TenantID == webhook.TenantID && existing.URL == webhook.URL {
			return domain.Webhook{}, domain.ErrWebhookDuplicate
		}
	}

	if webhook.ID == "" {
		webhook.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now

	r.items[webhook.ID] = webhook
	return webhook, nil
}

// ListActiveByTenant возвращает активные подписки тенанта.
func (r *webhookRepositoryInMemory) ListActiveByTenant(tenantID string) ([]domain.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Webhook, 0, len(r.items))
	for _, webhook := range r.items {
		if webhook.TenantID != tenantID || !webhook.IsActive {
			continue
		}
		result = append(result, webhook)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

var _ domain.WebhookRepository = (*webhookRepositoryInMemory)(nil)
