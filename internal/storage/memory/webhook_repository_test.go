package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

func TestWebhookRepository_CreateAndList(t *testing.T) {
	repo := NewWebhookRepository()

	created, err := repo.Create(domain.Webhook{
		TenantID: "tenant-1",
		URL:      "https://example.com/hooks",
		Secret:   "s3cret",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated webhook ID")
	}

	hooks, err := repo.ListActiveByTenant("tenant-1")
	if err != nil {
		t.Fatalf("ListActiveByTenant failed: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("expected 1 webhook, got %d", len(hooks))
	}
	if hooks[0].URL != "https://example.com/hooks" {
		t.Fatalf("unexpected url: %s", hooks[0].URL)
	}
}

func TestWebhookRepository_RejectsInvalid(t *testing.T) {
	repo := NewWebhookRepository()

	_, err := repo.Create(domain.Webhook{
		TenantID: "tenant-1",
		URL:      "http://insecure.example.com/hooks",
		IsActive: true,
	})
	if !errors.Is(err, domain.ErrWebhookURLInsecure) {
		t.Fatalf("expected ErrWebhookURLInsecure, got %v", err)
	}
}

func TestWebhookRepository_DuplicateURLPerTenant(t *testing.T) {
	repo := NewWebhookRepository()

	hook := domain.Webhook{TenantID: "tenant-1", URL: "https://example.com/hooks", IsActive: true}
	if _, err := repo.Create(hook); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.Create(hook); !errors.Is(err, domain.ErrWebhookDuplicate) {
		t.Fatalf("expected ErrWebhookDuplicate, got %v", err)
	}

	// Тот же URL у другого тенанта конфликтом не считается.
	hook.TenantID = "tenant-2"
	if _, err := repo.Create(hook); err != nil {
		t.Fatalf("Create for another tenant failed: %v", err)
	}
}

func TestWebhookRepository_ListFiltersInactiveAndForeign(t *testing.T) {
	repo := NewWebhookRepository()

	if _, err := repo.Create(domain.Webhook{
		TenantID: "tenant-1", URL: "https://example.com/a", IsActive: true,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Create(domain.Webhook{
		TenantID: "tenant-1", URL: "https://example.com/b", IsActive: false,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Create(domain.Webhook{
		TenantID: "tenant-2", URL: "https://example.com/c", IsActive: true,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	hooks, err := repo.ListActiveByTenant("tenant-1")
	if err != nil {
		t.Fatalf("ListActiveByTenant failed: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("expected 1 active webhook for tenant-1, got %d", len(hooks))
	}
	if hooks[0].URL != "https://example.com/a" {
		t.Fatalf("unexpected url: %s", hooks[0].URL)
	}
}
