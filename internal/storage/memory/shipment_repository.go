package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

// shipmentRepositoryInMemory — простая in-memory реализация ShipmentRepository.
type shipmentRepositoryInMemory struct {
	mu       sync.RWMutex
	items    map[string]domain.Shipment
	tracking map[string]string // трек-номер -> ID отправления
}

// NewShipmentRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewShipmentRepository() domain.ShipmentRepository {
	return &shipmentRepositoryInMemory{
		items:    make(map[string]domain.Shipment),
		tracking: make(map[string]string),
	}
}

// Create сохраняет новое отправление, если ID и трек-номер ещё не заняты.
func (r *shipmentRepositoryInMemory) Create(shipment domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[shipment.ID]; exists {
		return domain.ErrShipmentVersionConflict
	}
	if shipment.TrackingNumber != "" {
		if _, taken := r.tracking[shipment.TrackingNumber]; taken {
			return domain.ErrTrackingNumberTaken
		}
		r.tracking[shipment.TrackingNumber] = shipment.ID
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[shipment.ID] = shipment
	return nil
}

// Get возвращает отправление или ErrShipmentNotFound, если его нет.
func (r *shipmentRepositoryInMemory) Get(id string) (domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shipment, ok := r.items[id]
	if !ok {
		return domain.Shipment{}, domain.ErrShipmentNotFound
	}
	return shipment, nil
}

// GetByTrackingNumber ищет отправление по трек-номеру.
func (r *shipmentRepositoryInMemory) GetByTrackingNumber(trackingNumber string) (domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.tracking[trackingNumber]
	if !ok {
		return domain.Shipment{}, domain.ErrShipmentNotFound
	}
	shipment, ok := r.items[id]
	if !ok {
		return domain.Shipment{}, domain.ErrShipmentNotFound
	}
	return shipment, nil
}

// ListByTenant возвращает отправления тенанта, ограничивая выборку limit (если >0).
// Пустой status означает «без фильтра по статусу».
func (r *shipmentRepositoryInMemory) ListByTenant(tenantID string, status domain.ShipmentStatus, limit int) ([]domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Shipment, 0, len(r.items))
	for _, shipment := range r.items {
		if shipment.TenantID != tenantID {
			continue
		}
		if status != "" && shipment.Status != status {
			continue
		}
		result = append(result, shipment)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Save перезаписывает отправление, проверяя версию (optimistic locking).
func (r *shipmentRepositoryInMemory) Save(shipment domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[shipment.ID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	if current.Version != shipment.Version {
		return domain.ErrShipmentVersionConflict
	}
	if current.TrackingNumber != shipment.TrackingNumber {
		if shipment.TrackingNumber != "" {
			if owner, taken := r.tracking[shipment.TrackingNumber]; taken && owner != shipment.ID {
				return domain.ErrTrackingNumberTaken
			}
			r.tracking[shipment.TrackingNumber] = shipment.ID
		}
		delete(r.tracking, current.TrackingNumber)
	}
	// Инкрементируем версию перед сохранением.
	shipment.Version++
	r.items[shipment.ID] = shipment
	return nil
}

// Delete физически удаляет отправление.
func (r *shipmentRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shipment, ok := r.items[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	delete(r.tracking, shipment.TrackingNumber)
	delete(r.items, id)
	return nil
}

var _ domain.ShipmentRepository = (*shipmentRepositoryInMemory)(nil)
