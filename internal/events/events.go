// Package events publishes background task outcomes to an observability sink.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Type string

// Background task names. A failed task is published as "<name>_failed".
const (
	TaskPlanGeneration = "plan.generation"
	TaskPlanRefresh    = "plan.refresh"
	TaskProfilePush    = "profile.push"
)

const (
	TypePlanGenerationFailed Type = TaskPlanGeneration + "_failed"
	TypePlanRefreshFailed    Type = TaskPlanRefresh + "_failed"
	TypeProfilePushFailed    Type = TaskProfilePush + "_failed"
	TypePlanGenerated        Type = "plan.generated"
)

// FailureType returns the event type published when task gives up.
func FailureType(task string) Type {
	return Type(task + "_failed")
}

type Event struct {
	Type     Type      `json:"type"`
	UserID   string    `json:"user_id,omitempty"`
	Attempts int       `json:"attempts,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// LogSink writes events as structured log records.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink logs through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, ev Event) error {
	level := slog.LevelInfo
	if ev.Error != "" {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "Event published",
		"type", ev.Type, "userID", ev.UserID, "attempts", ev.Attempts, "error", ev.Error)
	return nil
}

// KafkaSink sends each event as a JSON message keyed by user id.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send event to Kafka: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

type teeSink []Sink

// Tee publishes to every sink and joins their errors.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

func (t teeSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
