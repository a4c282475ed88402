package domain

import (
	"math"
	"time"
)

// ServiceType описывает тариф доставки.
type ServiceType struct {
	Code string
	Name string
	// Ставки в минимальных денежных единицах.
	BaseRateMinor  int64
	RatePerKgMinor int64
	// Диапазон срока доставки в днях.
	EstimatedDaysMin int
	EstimatedDaysMax int
	IsActive         bool
}

// QuoteMinor считает стоимость доставки для указанного веса.
func (t *ServiceType) QuoteMinor(weightKg float64) int64 {
	if weightKg < 0 {
		weightKg = 0
	}
	return t.BaseRateMinor + int64(math.Round(float64(t.RatePerKgMinor)*weightKg))
}

// EstimateDelivery возвращает дату доставки по верхней границе диапазона.
func (t *ServiceType) EstimateDelivery(from time.Time) time.Time {
	return from.AddDate(0, 0, t.EstimatedDaysMax)
}
