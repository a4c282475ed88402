package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/domain"
	"github.com/vladislavdragonenkov/sms/internal/metrics"
)

const (
	maxSaveRetries = 3
	saveRetryDelay = 10 * time.Millisecond

	// Попытки подобрать свободный трек-номер при коллизии.
	maxTrackingNumberRetries = 3
)

// TransitionParams — необязательные атрибуты перехода статуса.
type TransitionParams struct {
	Description string
	Location    string
	ActorID     string
}

// Engine применяет переходы статусов отправления. Единственная точка,
// через которую меняется поле status и пополняется история трекинга:
// валидация по таблице переходов, optimistic locking, запись TrackingEvent
// и явная диспетчеризация уведомлений происходят здесь, без скрытых хуков
// на уровне хранилища.
type Engine struct {
	shipments domain.ShipmentRepository
	tracking  domain.TrackingRepository
	outbox    domain.OutboxRepository
	notifier  domain.Notifier
	logger    *log.Entry
	metrics   *metrics.ShipmentMetrics
}

// NewEngine создаёт рабочий экземпляр движка статусов.
// outbox и notifier могут быть nil — тогда события не публикуются.
func NewEngine(
	shipments domain.ShipmentRepository,
	tracking domain.TrackingRepository,
	outbox domain.OutboxRepository,
	notifier domain.Notifier,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "status-engine")
	}
	return &Engine{
		shipments: shipments,
		tracking:  tracking,
		outbox:    outbox,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics.NewShipmentMetrics(),
	}
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(
	shipments domain.ShipmentRepository,
	tracking domain.TrackingRepository,
	outbox domain.OutboxRepository,
	notifier domain.Notifier,
	logger *log.Entry,
) *Engine {
	engine := NewEngine(shipments, tracking, outbox, notifier, logger)
	engine.metrics = nil
	return engine
}

// Register регистрирует новое отправление: проверяет инварианты, выдаёт
// трек-номер, сохраняет запись, создаёт начальное событие истории и
// рассылает shipment.created.
func (e *Engine) Register(shipment domain.Shipment) (domain.Shipment, error) {
	now := time.Now().UTC()

	if shipment.ID == "" {
		shipment.ID = uuid.NewString()
	}
	if shipment.Status == "" {
		shipment.Status = domain.ShipmentStatusCreated
	}
	if shipment.Status != domain.ShipmentStatusCreated {
		return domain.Shipment{}, fmt.Errorf("%w: new shipment must start as %s",
			domain.ErrInvalidTransition, domain.ShipmentStatusCreated)
	}
	shipment.Version = 0
	shipment.CreatedAt = now
	shipment.UpdatedAt = now

	if errs := shipment.ValidateInvariants(); len(errs) > 0 {
		return domain.Shipment{}, errors.Join(errs...)
	}

	if err := e.createWithTrackingNumber(&shipment); err != nil {
		return domain.Shipment{}, err
	}

	event := domain.TrackingEvent{
		ShipmentID:  shipment.ID,
		Status:      domain.ShipmentStatusCreated,
		Description: "Shipment created.",
		Occurred:    now,
	}
	if err := e.appendTrackingEvent(event); err != nil {
		return domain.Shipment{}, err
	}

	e.emitEvent(shipment, domain.EventShipmentCreated)

	return shipment, nil
}

// createWithTrackingNumber сохраняет отправление, при необходимости генерируя
// трек-номер и повторяя попытку при коллизии уникальности.
func (e *Engine) createWithTrackingNumber(shipment *domain.Shipment) error {
	generated := shipment.TrackingNumber == ""

	for attempt := 0; attempt < maxTrackingNumberRetries; attempt++ {
		if generated {
			number, err := domain.GenerateTrackingNumber()
			if err != nil {
				return err
			}
			shipment.TrackingNumber = number
		}

		err := e.shipments.Create(*shipment)
		if err == nil {
			return nil
		}
		if generated && errors.Is(err, domain.ErrTrackingNumberTaken) {
			continue
		}
		return err
	}

	return domain.ErrTrackingNumberTaken
}

// Transition переводит отправление в целевой статус. Возвращает обновлённое
// отправление и созданную запись истории.
//
// Порядок строго фиксирован: валидация по таблице → запись статуса →
// TrackingEvent → уведомления. Уведомления fire-and-forget и не влияют
// на результат вызова.
func (e *Engine) Transition(shipmentID string, target domain.ShipmentStatus, params TransitionParams) (domain.Shipment, domain.TrackingEvent, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordTransitionDuration(time.Since(start))
		}
	}()

	shipment, err := e.shipments.Get(shipmentID)
	if err != nil {
		return domain.Shipment{}, domain.TrackingEvent{}, err
	}

	if !target.IsValid() {
		if e.metrics != nil {
			e.metrics.RecordTransitionRejected()
		}
		return domain.Shipment{}, domain.TrackingEvent{}, fmt.Errorf("%w: unknown target status %q",
			domain.ErrInvalidTransition, target)
	}
	if !shipment.Status.CanTransitionTo(target) {
		if e.metrics != nil {
			e.metrics.RecordTransitionRejected()
		}
		return domain.Shipment{}, domain.TrackingEvent{}, fmt.Errorf("%w: %s -> %s",
			domain.ErrInvalidTransition, shipment.Status, target)
	}

	oldStatus := shipment.Status
	if err := e.persistStatus(&shipment, oldStatus, target); err != nil {
		return domain.Shipment{}, domain.TrackingEvent{}, err
	}

	description := params.Description
	if description == "" {
		description = fmt.Sprintf("Status changed from %s to %s", oldStatus, target)
	}
	event := domain.TrackingEvent{
		ShipmentID:  shipment.ID,
		Status:      target,
		Description: description,
		Location:    params.Location,
		ActorID:     params.ActorID,
		Occurred:    shipment.UpdatedAt,
	}
	if err := e.appendTrackingEvent(event); err != nil {
		return domain.Shipment{}, domain.TrackingEvent{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordTransition(string(target))
	}

	// Явная change detection: прежний и новый статусы сравниваются здесь,
	// а не в скрытом хуке хранилища. Self-transition уведомлений не даёт.
	if oldStatus != target {
		e.emitEvent(shipment, domain.EventShipmentStatusChanged)
		if target == domain.ShipmentStatusDelivered {
			e.emitEvent(shipment, domain.EventShipmentDelivered)
		}
	}

	return shipment, event, nil
}

// persistStatus сохраняет новый статус с optimistic locking. При version
// conflict запись перечитывается: если статус успел измениться — переход
// отклоняется с ErrStatusConflict, если менялись посторонние поля —
// попытка повторяется с backoff.
func (e *Engine) persistStatus(shipment *domain.Shipment, oldStatus, target domain.ShipmentStatus) error {
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		shipment.Status = target
		shipment.UpdatedAt = time.Now().UTC()
		prevVersion := shipment.Version

		err := e.shipments.Save(*shipment)
		if err == nil {
			shipment.Version = prevVersion + 1
			return nil
		}

		if !domain.IsVersionConflict(err) {
			shipment.Status = oldStatus
			e.logger.WithError(err).WithField("shipment_id", shipment.ID).Error("failed to persist status")
			return err
		}

		fresh, loadErr := e.shipments.Get(shipment.ID)
		if loadErr != nil {
			e.logger.WithError(loadErr).WithField("shipment_id", shipment.ID).Error("failed to reload shipment after conflict")
			return loadErr
		}
		if fresh.Status != oldStatus {
			if e.metrics != nil {
				e.metrics.RecordTransitionConflict()
			}
			e.logger.WithFields(log.Fields{
				"shipment_id": shipment.ID,
				"expected":    oldStatus,
				"observed":    fresh.Status,
			}).Warn("status changed concurrently, rejecting transition")
			return fmt.Errorf("%w: expected %s, observed %s", domain.ErrStatusConflict, oldStatus, fresh.Status)
		}

		*shipment = fresh
		if attempt < maxSaveRetries-1 {
			time.Sleep(saveRetryDelay * time.Duration(1<<uint(attempt)))
		}
	}

	return domain.ErrShipmentVersionConflict
}

// Delete физически удаляет отправление. Разрешено только до начала
// перевозки (created) или после отмены.
func (e *Engine) Delete(shipmentID string) error {
	shipment, err := e.shipments.Get(shipmentID)
	if err != nil {
		return err
	}
	if !shipment.Deletable() {
		return fmt.Errorf("%w: status %s", domain.ErrShipmentNotDeletable, shipment.Status)
	}
	return e.shipments.Delete(shipment.ID)
}

func (e *Engine) appendTrackingEvent(event domain.TrackingEvent) error {
	if err := e.tracking.Append(event); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"shipment_id": event.ShipmentID,
			"status":      event.Status,
		}).Error("failed to append tracking event")
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordTrackingEvent()
	}
	return nil
}

// emitEvent рассылает уведомление и ставит событие в outbox. Обе ветки
// best-effort: сбой здесь не откатывает уже завершённый переход.
func (e *Engine) emitEvent(shipment domain.Shipment, eventName string) {
	if e.notifier != nil {
		if e.metrics != nil {
			e.metrics.RecordNotification(eventName)
		}
		e.notifier.Notify(shipment, eventName)
	}

	if e.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"event":            eventName,
		"shipment_id":      shipment.ID,
		"tenant_id":        shipment.TenantID,
		"tracking_number":  shipment.TrackingNumber,
		"new_status":       string(shipment.Status),
		"reference_number": shipment.ReferenceNumber,
		"ts":               shipment.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"shipment_id": shipment.ID,
			"event":       eventName,
		}).Error("marshal outbox event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "shipment",
		AggregateID:   shipment.ID,
		EventType:     eventName,
		Payload:       payload,
	}
	if _, err := e.outbox.Enqueue(msg); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"shipment_id": shipment.ID,
			"event":       eventName,
		}).Error("enqueue outbox event failed")
	} else if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
}
