package domain

import (
	"net/url"
	"time"
)

// Webhook — зарегистрированная точка доставки уведомлений тенанта.
// Диспетчер читает подписки только на чтение; управление подписками
// лежит за пределами ядра.
type Webhook struct {
	ID       string
	TenantID string
	URL      string
	// Secret используется для подписи полезной нагрузки; после создания
	// подписки наружу не отдаётся.
	Secret    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет инварианты подписки: URL обязателен и должен
// использовать шифрованный транспорт.
func (w *Webhook) Validate() error {
	if w.TenantID == "" {
		return ErrTenantRequired
	}
	if w.URL == "" {
		return ErrWebhookURLRequired
	}
	parsed, err := url.Parse(w.URL)
	if err != nil || parsed.Host == "" {
		return ErrWebhookURLInvalid
	}
	if parsed.Scheme != "https" {
		return ErrWebhookURLInsecure
	}
	return nil
}
