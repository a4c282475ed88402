package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

// trackingRepositoryInMemory хранит историю трекинга в памяти (для разработки/тестов).
type trackingRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TrackingEvent
}

// NewTrackingRepository создаёт in-memory реализацию TrackingRepository.
func NewTrackingRepository() domain.TrackingRepository {
	return &trackingRepositoryInMemory{events: make(map[string][]domain.TrackingEvent)}
}

// Append добавляет событие в историю отправления.
func (r *trackingRepositoryInMemory) Append(event domain.TrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ShipmentID] = append(r.events[event.ShipmentID], event)
	return nil
}

// List возвращает события отправления от новых к старым.
func (r *trackingRepositoryInMemory) List(shipmentID string) ([]domain.TrackingEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[shipmentID]
	result := make([]domain.TrackingEvent, len(events))
	copy(result, events)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occurred.After(result[j].Occurred)
	})

	return result, nil
}

var _ domain.TrackingRepository = (*trackingRepositoryInMemory)(nil)
