package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/domain"
)

type stubWebhookRepo struct {
	hooks []domain.Webhook
	err   error
}

func (s *stubWebhookRepo) Create(webhook domain.Webhook) (domain.Webhook, error) {
	s.hooks = append(s.hooks, webhook)
	return webhook, nil
}

func (s *stubWebhookRepo) ListActiveByTenant(tenantID string) ([]domain.Webhook, error) {
	return s.hooks, s.err
}

func testNotifyShipment() domain.Shipment {
	return domain.Shipment{
		ID:              "shp-1",
		TenantID:        "tenant-1",
		TrackingNumber:  "SHP000000000001",
		ReferenceNumber: "ORDER-42",
		Status:          domain.ShipmentStatusDelivered,
	}
}

func TestDispatcher_DeliversSignedPayload(t *testing.T) {
	var (
		gotBody      []byte
		gotEvent     string
		gotSignature string
		gotContent   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotEvent = r.Header.Get(headerEvent)
		gotSignature = r.Header.Get(headerSignature)
		gotContent = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &stubWebhookRepo{hooks: []domain.Webhook{{
		TenantID: "tenant-1",
		URL:      server.URL,
		Secret:   "hook-secret",
		IsActive: true,
	}}}

	d := NewDispatcher(repo, WithLogger(log.New().WithField("test", "deliver")))
	d.Notify(testNotifyShipment(), domain.EventShipmentDelivered)

	if gotEvent != domain.EventShipmentDelivered {
		t.Fatalf("unexpected event header %q", gotEvent)
	}
	if gotContent != "application/json" {
		t.Fatalf("unexpected content type %q", gotContent)
	}
	if !Verify("hook-secret", gotBody, gotSignature) {
		t.Fatal("signature header must verify against the delivered body")
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["event"] != domain.EventShipmentDelivered {
		t.Fatalf("unexpected payload event %q", payload["event"])
	}
	if payload["tracking_number"] != "SHP000000000001" {
		t.Fatalf("unexpected tracking number %q", payload["tracking_number"])
	}
	if payload["new_status"] != string(domain.ShipmentStatusDelivered) {
		t.Fatalf("unexpected new_status %q", payload["new_status"])
	}
	if payload["reference_number"] != "ORDER-42" {
		t.Fatalf("unexpected reference_number %q", payload["reference_number"])
	}
	if payload["shipment_id"] != "shp-1" {
		t.Fatalf("unexpected shipment_id %q", payload["shipment_id"])
	}
	if _, err := time.Parse(time.RFC3339, payload["timestamp"]); err != nil {
		t.Fatalf("timestamp must be RFC3339: %v", err)
	}
}

func TestDispatcher_NoSignatureWithoutSecret(t *testing.T) {
	var gotSignature atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature.Store(r.Header.Get(headerSignature))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &stubWebhookRepo{hooks: []domain.Webhook{{
		TenantID: "tenant-1",
		URL:      server.URL,
		IsActive: true,
	}}}

	d := NewDispatcher(repo, WithLogger(log.New().WithField("test", "nosecret")))
	d.Notify(testNotifyShipment(), domain.EventShipmentCreated)

	if signature, _ := gotSignature.Load().(string); signature != "" {
		t.Fatalf("expected no signature header, got %q", signature)
	}
}

func TestDispatcher_FailuresAreIsolated(t *testing.T) {
	var slowCalls, errorCalls, okCalls int32

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&slowCalls, 1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer slow.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&errorCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&okCalls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	repo := &stubWebhookRepo{hooks: []domain.Webhook{
		{TenantID: "tenant-1", URL: slow.URL, IsActive: true},
		{TenantID: "tenant-1", URL: failing.URL, IsActive: true},
		{TenantID: "tenant-1", URL: healthy.URL, IsActive: true},
	}}

	d := NewDispatcher(repo,
		WithLogger(log.New().WithField("test", "isolation")),
		WithTimeout(100*time.Millisecond),
	)

	// Notify не должен ни паниковать, ни возвращать ошибку — её просто нет в сигнатуре.
	d.Notify(testNotifyShipment(), domain.EventShipmentStatusChanged)

	if atomic.LoadInt32(&slowCalls) != 1 {
		t.Fatalf("expected slow subscriber to be called once, got %d", slowCalls)
	}
	if atomic.LoadInt32(&errorCalls) != 1 {
		t.Fatalf("expected failing subscriber to be called once, got %d", errorCalls)
	}
	if atomic.LoadInt32(&okCalls) != 1 {
		t.Fatalf("expected healthy subscriber to be called despite earlier failures, got %d", okCalls)
	}
}

func TestDispatcher_NoSubscribersNoRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	d := NewDispatcher(&stubWebhookRepo{}, WithLogger(log.New().WithField("test", "empty")))
	d.Notify(testNotifyShipment(), domain.EventShipmentCreated)

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no outbound requests, got %d", calls)
	}
}

func TestDispatcher_RepositoryErrorSwallowed(t *testing.T) {
	d := NewDispatcher(&stubWebhookRepo{err: errors.New("storage down")},
		WithLogger(log.New().WithField("test", "repo-error")))

	// Не должно паниковать.
	d.Notify(testNotifyShipment(), domain.EventShipmentStatusChanged)
}
