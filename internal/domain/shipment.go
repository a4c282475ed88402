package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

// ShipmentStatus описывает жизненный цикл отправления.
type ShipmentStatus string

const (
	// ShipmentStatusCreated — отправление зарегистрировано, курьер ещё не забрал посылку.
	ShipmentStatusCreated ShipmentStatus = "created"
	// ShipmentStatusPickedUp — посылка забрана курьером.
	ShipmentStatusPickedUp ShipmentStatus = "picked_up"
	// ShipmentStatusInTransit — посылка в пути между сортировочными центрами.
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	// ShipmentStatusOutForDelivery — посылка передана на последнюю милю.
	ShipmentStatusOutForDelivery ShipmentStatus = "out_for_delivery"
	// ShipmentStatusDelivered — посылка вручена получателю.
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	// ShipmentStatusCancelled — отправление отменено до начала перевозки.
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	// ShipmentStatusReturned — посылка возвращена отправителю.
	ShipmentStatusReturned ShipmentStatus = "returned"
)

// statusTransitions — единственный источник правды о допустимых переходах.
// Прыжки вперёд разрешены (курьер может пропустить промежуточный скан),
// повторный скан в активных статусах даёт self-transition и новую запись
// в истории. Отмена возможна только до начала перевозки; возврат — из
// транзитных статусов и из delivered. cancelled и returned — терминальные.
var statusTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusCreated: {
		ShipmentStatusPickedUp, ShipmentStatusInTransit, ShipmentStatusOutForDelivery,
		ShipmentStatusDelivered, ShipmentStatusCancelled,
	},
	ShipmentStatusPickedUp: {
		ShipmentStatusPickedUp, ShipmentStatusInTransit, ShipmentStatusOutForDelivery,
		ShipmentStatusDelivered, ShipmentStatusCancelled,
	},
	ShipmentStatusInTransit: {
		ShipmentStatusInTransit, ShipmentStatusOutForDelivery,
		ShipmentStatusDelivered, ShipmentStatusReturned,
	},
	ShipmentStatusOutForDelivery: {
		ShipmentStatusOutForDelivery, ShipmentStatusDelivered, ShipmentStatusReturned,
	},
	ShipmentStatusDelivered: {ShipmentStatusReturned},
	ShipmentStatusCancelled: {},
	ShipmentStatusReturned:  {},
}

// IsValid сообщает, входит ли значение в перечень статусов жизненного цикла.
func (s ShipmentStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет ни одного перехода.
func (s ShipmentStatus) IsTerminal() bool {
	targets, ok := statusTransitions[s]
	return ok && len(targets) == 0
}

// CanTransitionTo проверяет допустимость перехода по таблице.
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTargets возвращает копию списка допустимых целевых статусов.
func (s ShipmentStatus) AllowedTargets() []ShipmentStatus {
	targets := statusTransitions[s]
	result := make([]ShipmentStatus, len(targets))
	copy(result, targets)
	return result
}

// Address — адресные реквизиты отправителя или получателя.
type Address struct {
	Name    string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
	Phone   string
}

// Shipment агрегирует состояние отправления.
type Shipment struct {
	ID              string
	TenantID        string
	CarrierID       string
	TrackingNumber  string
	ReferenceNumber string
	Sender          Address
	Receiver        Address

	// Физические параметры посылки.
	WeightKg float64
	LengthCm float64
	WidthCm  float64
	HeightCm float64
	Contents string

	ServiceCode        string
	EstimatedCostMinor int64
	EstimatedDelivery  time.Time

	Status   ShipmentStatus
	LabelURL string

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты отправления и возвращает список замечаний.
func (s *Shipment) ValidateInvariants() []error {
	var errs []error

	if s.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if s.ServiceCode == "" {
		errs = append(errs, ErrServiceCodeRequired)
	}
	if s.WeightKg <= 0 {
		errs = append(errs, ErrWeightInvalid)
	}
	if s.LengthCm <= 0 || s.WidthCm <= 0 || s.HeightCm <= 0 {
		errs = append(errs, ErrDimensionsInvalid)
	}
	if s.Sender.Name == "" || s.Sender.City == "" {
		errs = append(errs, ErrSenderAddressRequired)
	}
	if s.Receiver.Name == "" || s.Receiver.City == "" {
		errs = append(errs, ErrReceiverAddressRequired)
	}
	if s.EstimatedCostMinor < 0 {
		errs = append(errs, ErrCostNegative)
	}
	if s.Status != "" && !s.Status.IsValid() {
		errs = append(errs, ErrStatusUnknown)
	}

	return errs
}

// Deletable сообщает, можно ли физически удалить отправление.
// Административная страховка: удаляем только то, что не успело уехать.
func (s *Shipment) Deletable() bool {
	return s.Status == ShipmentStatusCreated || s.Status == ShipmentStatusCancelled
}

const trackingNumberPrefix = "SHP"

// GenerateTrackingNumber формирует трек-номер вида SHP + 12 случайных цифр.
func GenerateTrackingNumber() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tracking number: %w", err)
	}
	digits := make([]byte, len(buf))
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return trackingNumberPrefix + string(digits), nil
}
