package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора тенанта.
	ErrTenantRequired = errors.New("tenant_id is required")
	// Ошибка отсутствующего кода тарифа.
	ErrServiceCodeRequired = errors.New("service_code is required")
	// Ошибка некорректного веса посылки (<= 0).
	ErrWeightInvalid = errors.New("weight_kg must be greater than zero")
	// Ошибка некорректных габаритов посылки.
	ErrDimensionsInvalid = errors.New("package dimensions must be greater than zero")
	// Ошибка отсутствующего адреса отправителя.
	ErrSenderAddressRequired = errors.New("sender address is required")
	// Ошибка отсутствующего адреса получателя.
	ErrReceiverAddressRequired = errors.New("receiver address is required")
	// Ошибка отрицательной стоимости доставки.
	ErrCostNegative = errors.New("estimated_cost_minor must be non-negative")
	// Ошибка неизвестного значения статуса.
	ErrStatusUnknown = errors.New("unknown shipment status")

	// ErrInvalidTransition возвращается, когда целевой статус недостижим из текущего.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusConflict сигнализирует, что статус изменился между чтением и записью.
	ErrStatusConflict = errors.New("shipment status changed concurrently")
	// ErrShipmentNotFound возвращается, если отправление не найдено в репозитории.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrShipmentVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrShipmentVersionConflict = errors.New("shipment version conflict")
	// ErrShipmentNotDeletable — отправление уже в перевозке, физическое удаление запрещено.
	ErrShipmentNotDeletable = errors.New("shipment can only be deleted before transit")
	// ErrTrackingNumberTaken — трек-номер уже занят другим отправлением.
	ErrTrackingNumberTaken = errors.New("tracking number already in use")

	// Ошибка отсутствующего URL подписки.
	ErrWebhookURLRequired = errors.New("webhook url is required")
	// Ошибка некорректного URL подписки.
	ErrWebhookURLInvalid = errors.New("webhook url is invalid")
	// Ошибка незашифрованной схемы URL подписки.
	ErrWebhookURLInsecure = errors.New("webhook url must use https")
	// ErrWebhookDuplicate — у тенанта уже есть подписка на этот URL.
	ErrWebhookDuplicate = errors.New("webhook already registered for this url")
	// ErrWebhookNotFound возвращается, если подписка не найдена.
	ErrWebhookNotFound = errors.New("webhook not found")

	// ErrServiceTypeNotFound возвращается, если тариф не найден или неактивен.
	ErrServiceTypeNotFound = errors.New("service type not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrShipmentVersionConflict)
}

// IsInvalidTransition проверяет, является ли ошибка отказом по таблице переходов.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
