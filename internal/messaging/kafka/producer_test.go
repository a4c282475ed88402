package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	// Создаем mock producer
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидания
	mockProducer.ExpectSendMessageAndSucceed()

	event := NewShipmentEvent(
		"shipment.status_changed",
		"shp-1",
		"tenant-1",
		"SHP000000000001",
		"in_transit",
		map[string]interface{}{
			"location": "Moscow hub",
		},
	)

	err := producer.PublishEvent(TopicShipmentEvents, "shp-1", event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Проверяем, что все ожидания выполнены
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидание ошибки
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewShipmentEvent(
		"shipment.delivered",
		"shp-1",
		"tenant-1",
		"SHP000000000001",
		"delivered",
		nil,
	)

	err := producer.PublishEvent(TopicShipmentEvents, "shp-1", event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewShipmentEvent(t *testing.T) {
	event := NewShipmentEvent(
		"shipment.created",
		"shp-1",
		"tenant-1",
		"SHP000000000001",
		"created",
		map[string]interface{}{"reference": "ORDER-42"},
	)

	if event.EventType != "shipment.created" {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if event.ShipmentID != "shp-1" || event.TenantID != "tenant-1" {
		t.Fatalf("unexpected identifiers: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}
