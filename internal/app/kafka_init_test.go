package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	t.Parallel()

	producer, err := initKafkaProducer("", log.WithField("test", "kafka-empty"))
	if err != nil {
		t.Fatalf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Fatal("expected nil producer for empty brokers")
	}
}

func TestInitKafkaProducer_UnreachableBroker(t *testing.T) {
	t.Parallel()

	producer, err := initKafkaProducer("localhost:1", log.WithField("test", "kafka-unreachable"))
	if err == nil {
		t.Fatal("expected error for unreachable broker")
	}
	if producer != nil {
		t.Fatal("expected nil producer on error")
	}
}

func TestCloseKafka_NilProducer(t *testing.T) {
	t.Parallel()

	closeKafka(nil, log.WithField("test", "kafka-close-nil"))
}
