package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/domain"
	"github.com/vladislavdragonenkov/sms/internal/storage/memory"
	"github.com/vladislavdragonenkov/sms/internal/storage/postgres"
)

// runtimeDependencies содержит репозитории, собранные под выбранный
// storage driver. store заполняется только для postgres.
type runtimeDependencies struct {
	shipments    domain.ShipmentRepository
	tracking     domain.TrackingRepository
	webhooks     domain.WebhookRepository
	serviceTypes domain.ServiceTypeRepository
	outboxRepo   domain.OutboxRepository
	store        *postgres.Store
}

// initRuntimeDependencies инициализирует хранилище по конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := cfg.StorageDriver
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			shipments:    memory.NewShipmentRepository(),
			tracking:     memory.NewTrackingRepository(),
			webhooks:     memory.NewWebhookRepository(),
			serviceTypes: memory.NewServiceTypeRepository(defaultServiceTypes()...),
			outboxRepo:   memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return &runtimeDependencies{
			shipments:    postgres.NewShipmentRepository(store),
			tracking:     postgres.NewTrackingRepository(store),
			webhooks:     postgres.NewWebhookRepository(store),
			serviceTypes: postgres.NewServiceTypeRepository(store),
			outboxRepo:   postgres.NewOutboxRepository(store),
			store:        store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// Close закрывает соединение с базой, если оно было открыто.
func (d *runtimeDependencies) Close(logger *log.Entry) {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	} else {
		logger.Info("postgres store closed")
	}
}

// defaultServiceTypes — тарифы, доступные из коробки при in-memory запуске.
func defaultServiceTypes() []domain.ServiceType {
	return []domain.ServiceType{
		{
			Code:             "standard",
			Name:             "Standard Delivery",
			BaseRateMinor:    1000,
			RatePerKgMinor:   250,
			EstimatedDaysMin: 3,
			EstimatedDaysMax: 5,
			IsActive:         true,
		},
		{
			Code:             "express",
			Name:             "Express Delivery",
			BaseRateMinor:    2500,
			RatePerKgMinor:   400,
			EstimatedDaysMin: 1,
			EstimatedDaysMax: 2,
			IsActive:         true,
		},
	}
}
