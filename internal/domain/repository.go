package domain

// ShipmentRepository описывает требования к хранилищу отправлений.
type ShipmentRepository interface {
	// Create сохраняет новое отправление. Возвращает ошибку, если запись с таким
	// ID или трек-номером уже существует.
	Create(shipment Shipment) error
	// Get возвращает отправление по идентификатору или ErrShipmentNotFound.
	Get(id string) (Shipment, error)
	// GetByTrackingNumber ищет отправление по трек-номеру (публичный трекинг).
	GetByTrackingNumber(trackingNumber string) (Shipment, error)
	// ListByTenant возвращает отправления тенанта, опционально фильтруя по статусу.
	ListByTenant(tenantID string, status ShipmentStatus, limit int) ([]Shipment, error)
	// Save применяет обновления с учётом optimistic locking.
	Save(shipment Shipment) error
	// Delete физически удаляет отправление вместе с историей трекинга.
	Delete(id string) error
}

// TrackingRepository хранит историю статусов отправления (append-only).
type TrackingRepository interface {
	Append(event TrackingEvent) error
	// List возвращает события отправления от новых к старым.
	List(shipmentID string) ([]TrackingEvent, error)
}

// WebhookRepository даёт диспетчеру доступ к подпискам тенанта.
type WebhookRepository interface {
	// Create регистрирует подписку, проверяя инварианты и уникальность (tenant, url).
	Create(webhook Webhook) (Webhook, error)
	// ListActiveByTenant возвращает активные подписки тенанта.
	ListActiveByTenant(tenantID string) ([]Webhook, error)
}

// ServiceTypeRepository хранит справочник тарифов.
type ServiceTypeRepository interface {
	ListActive() ([]ServiceType, error)
	// GetByCode возвращает активный тариф или ErrServiceTypeNotFound.
	GetByCode(code string) (ServiceType, error)
}
