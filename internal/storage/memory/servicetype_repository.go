package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

// serviceTypeRepositoryInMemory хранит справочник тарифов в памяти.
type serviceTypeRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.ServiceType
}

// NewServiceTypeRepository создаёт in-memory справочник с заданным набором тарифов.
func NewServiceTypeRepository(types ...domain.ServiceType) domain.ServiceTypeRepository {
	repo := &serviceTypeRepositoryInMemory{items: make(map[string]domain.ServiceType, len(types))}
	for _, t := range types {
		repo.items[t.Code] = t
	}
	return repo
}

// ListActive возвращает активные тарифы, отсортированные по коду.
func (r *serviceTypeRepositoryInMemory) ListActive() ([]domain.ServiceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ServiceType, 0, len(r.items))
	for _, t := range r.items {
		if !t.IsActive {
			continue
		}
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})

	return result, nil
}

// GetByCode возвращает активный тариф или ErrServiceTypeNotFound.
func (r *serviceTypeRepositoryInMemory) GetByCode(code string) (domain.ServiceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[code]
	if !ok || !t.IsActive {
		return domain.ServiceType{}, domain.ErrServiceTypeNotFound
	}
	return t, nil
}

var _ domain.ServiceTypeRepository = (*serviceTypeRepositoryInMemory)(nil)
