package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

func testShipment(id, tracking string) domain.Shipment {
	now := time.Now().UTC()
	return domain.Shipment{
		ID:             id,
		TenantID:       "tenant-1",
		TrackingNumber: tracking,
		ServiceCode:    "standard",
		WeightKg:       1.5,
		Status:         domain.ShipmentStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestShipmentRepository_CreateAndGet(t *testing.T) {
	repo := NewShipmentRepository()

	if err := repo.Create(testShipment("shp-1", "SHP000000000001")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get("shp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrackingNumber != "SHP000000000001" {
		t.Fatalf("unexpected tracking number %q", got.TrackingNumber)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}

func TestShipmentRepository_TrackingNumberUnique(t *testing.T) {
	repo := NewShipmentRepository()

	if err := repo.Create(testShipment("shp-1", "SHP000000000001")); err != nil {
		t.Fatalf("create first: %v", err)
	}

	err := repo.Create(testShipment("shp-2", "SHP000000000001"))
	if !errors.Is(err, domain.ErrTrackingNumberTaken) {
		t.Fatalf("expected ErrTrackingNumberTaken, got %v", err)
	}
}

func TestShipmentRepository_GetByTrackingNumber(t *testing.T) {
	repo := NewShipmentRepository()

	if err := repo.Create(testShipment("shp-1", "SHP000000000001")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByTrackingNumber("SHP000000000001")
	if err != nil {
		t.Fatalf("get by tracking number: %v", err)
	}
	if got.ID != "shp-1" {
		t.Fatalf("unexpected shipment %q", got.ID)
	}

	if _, err := repo.GetByTrackingNumber("SHP999999999999"); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}

func TestShipmentRepository_SaveVersionConflict(t *testing.T) {
	repo := NewShipmentRepository()

	if err := repo.Create(testShipment("shp-1", "SHP000000000001")); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := repo.Get("shp-1")
	first.Status = domain.ShipmentStatusPickedUp
	if err := repo.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	// Повторный Save с устаревшей версией должен упасть.
	first.Status = domain.ShipmentStatusInTransit
	if err := repo.Save(first); !errors.Is(err, domain.ErrShipmentVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	updated, _ := repo.Get("shp-1")
	if updated.Version != 1 {
		t.Fatalf("expected version 1, got %d", updated.Version)
	}
	if updated.Status != domain.ShipmentStatusPickedUp {
		t.Fatalf("expected picked_up, got %s", updated.Status)
	}
}

func TestShipmentRepository_ListByTenant(t *testing.T) {
	repo := NewShipmentRepository()

	a := testShipment("shp-1", "SHP000000000001")
	b := testShipment("shp-2", "SHP000000000002")
	b.Status = domain.ShipmentStatusDelivered
	c := testShipment("shp-3", "SHP000000000003")
	c.TenantID = "tenant-2"

	for _, s := range []domain.Shipment{a, b, c} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	all, err := repo.ListByTenant("tenant-1", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(all))
	}

	delivered, err := repo.ListByTenant("tenant-1", domain.ShipmentStatusDelivered, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(delivered) != 1 || delivered[0].ID != "shp-2" {
		t.Fatalf("unexpected filtered result: %+v", delivered)
	}
}

func TestShipmentRepository_Delete(t *testing.T) {
	repo := NewShipmentRepository()

	if err := repo.Create(testShipment("shp-1", "SHP000000000001")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete("shp-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get("shp-1"); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound after delete, got %v", err)
	}

	// Трек-номер освобождается вместе с записью.
	if err := repo.Create(testShipment("shp-2", "SHP000000000001")); err != nil {
		t.Fatalf("recreate with freed tracking number: %v", err)
	}
}
