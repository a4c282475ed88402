package domain_test

import (
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

func TestIsVersionConflict(t *testing.T) {
	if !domain.IsVersionConflict(domain.ErrShipmentVersionConflict) {
		t.Fatal("expected true for ErrShipmentVersionConflict")
	}
	wrapped := fmt.Errorf("save shipment: %w", domain.ErrShipmentVersionConflict)
	if !domain.IsVersionConflict(wrapped) {
		t.Fatal("expected true for wrapped version conflict")
	}
	if domain.IsVersionConflict(domain.ErrShipmentNotFound) {
		t.Fatal("expected false for unrelated error")
	}
	if domain.IsVersionConflict(nil) {
		t.Fatal("expected false for nil")
	}
}

func TestIsInvalidTransition(t *testing.T) {
	wrapped := fmt.Errorf("%w: delivered -> in_transit", domain.ErrInvalidTransition)
	if !domain.IsInvalidTransition(wrapped) {
		t.Fatal("expected true for wrapped invalid transition")
	}
	if domain.IsInvalidTransition(domain.ErrStatusConflict) {
		t.Fatal("expected false for status conflict")
	}
}
