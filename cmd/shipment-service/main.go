package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/app"
)

const (
	envHTTPAddr            = "SMS_HTTP_ADDR"
	envMetricsAddr         = "SMS_METRICS_ADDR"
	envPostgresDSN         = "SMS_POSTGRES_DSN"
	envPostgresAutoMigrate = "SMS_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envWebhookTimeout      = "SMS_WEBHOOK_TIMEOUT"
	envOutboxPollInterval  = "SMS_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize     = "SMS_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts   = "SMS_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay    = "SMS_OUTBOX_RETRY_DELAY"
)

// envLookup абстрагирует os.LookupEnv для тестов.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv формирует конфигурацию приложения из переменных
// окружения. Некорректные значения не роняют процесс: поле остаётся
// со значением по умолчанию, а предупреждение возвращается вызывающему.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envHTTPAddr); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresDSN); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = app.StorageDriverPostgres
		cfg.PostgresDSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresAutoMigrate); ok {
		if b, err := parseBool(v); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envPostgresAutoMigrate, err))
		} else {
			cfg.PostgresAutoMigrate = b
		}
	}
	if v, ok := lookup(envKafkaBrokers); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaBrokers = strings.TrimSpace(v)
	}
	if v, ok := lookup(envWebhookTimeout); ok {
		if d, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envWebhookTimeout, err))
		} else {
			cfg.WebhookTimeout = d
		}
	}
	if v, ok := lookup(envOutboxPollInterval); ok {
		if d, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envOutboxPollInterval, err))
		} else {
			cfg.OutboxPollInterval = d
		}
	}
	if v, ok := lookup(envOutboxBatchSize); ok {
		if n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envOutboxBatchSize, err))
		} else {
			cfg.OutboxBatchSize = n
		}
	}
	if v, ok := lookup(envOutboxMaxAttempts); ok {
		if n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envOutboxMaxAttempts, err))
		} else {
			cfg.OutboxMaxAttempts = n
		}
	}
	if v, ok := lookup(envOutboxRetryDelay); ok {
		if d, err := parseDuration(v, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envOutboxRetryDelay, err))
		} else {
			cfg.OutboxRetryDelay = d
		}
	}

	return cfg, warnings
}

// parseBool принимает true/false, yes/no, on/off в любом регистре.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, constraint string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(n) {
		return 0, fmt.Errorf("value %d %s", n, constraint)
	}
	return n, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, constraint string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(d) {
		return 0, fmt.Errorf("value %s %s", d, constraint)
	}
	return d, nil
}

func main() {
	setupLogger()
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
	}).Info("запускаем ShipmentService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("ShipmentService остановлен")
}
