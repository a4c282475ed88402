package memory

import (
	"testing"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "shipment",
		AggregateID:   "shp-1",
		EventType:     domain.EventShipmentCreated,
		Payload:       []byte(`{"event":"shipment.created"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected generated message ID")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}

func TestOutboxRepository_MarkSentRemovesFromPending(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{EventType: domain.EventShipmentStatusChanged})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %d", len(pending))
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected zero pending, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_StatsTracksOldest(t *testing.T) {
	repo := NewOutboxRepository()

	if _, err := repo.Enqueue(domain.OutboxMessage{EventType: domain.EventShipmentCreated}); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if _, err := repo.Enqueue(domain.OutboxMessage{EventType: domain.EventShipmentDelivered}); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp to be set")
	}
}

func TestOutboxRepository_MarkFailedKeepsRecord(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{EventType: domain.EventShipmentStatusChanged})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := repo.MarkFailed(msg.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed message must leave pending set, got %d", len(pending))
	}

	if err := repo.MarkSent("missing"); err == nil {
		t.Fatal("expected error for unknown message ID")
	}
}
