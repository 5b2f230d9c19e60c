// Package dispatch hands assembled reports to the delivery transport. The
// core's contract ends at the handoff; delivery and retry belong to the
// transport.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

type Dispatcher interface {
	Publish(ctx context.Context, r model.ViolationReport) error
	Close() error
}

func New(cfg config.DispatchConfig, logger *slog.Logger) Dispatcher {
	if cfg.Kafka.Enabled {
		if logger != nil {
			logger.Info("kafka dispatch enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		}
		return NewKafka(cfg.Kafka)
	}
	if logger != nil {
		logger.Info("kafka dispatch disabled, reports logged only")
	}
	return &LogDispatcher{logger: logger}
}

type KafkaDispatcher struct {
	writer *kafka.Writer
}

func NewKafka(cfg config.KafkaConfig) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (d *KafkaDispatcher) Publish(ctx context.Context, r model.ViolationReport) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.Type),
		Value: value,
	})
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// LogDispatcher records the handoff when no transport is configured, so
// reports remain visible through the API and logs instead of vanishing.
type LogDispatcher struct {
	logger *slog.Logger
}

func (d *LogDispatcher) Publish(_ context.Context, r model.ViolationReport) error {
	if d.logger != nil {
		d.logger.Info("report ready for dispatch",
			"type", r.Type,
			"recipients", r.Agencies.IDs(),
			"undeliverable", r.Undeliverable,
			"escalation", r.Escalation,
		)
	}
	return nil
}

func (d *LogDispatcher) Close() error { return nil }
