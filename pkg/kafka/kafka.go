package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const (
	defaultWaitAttempts = 3
	defaultWaitDelay    = time.Second
)

// ProducerConfig configures NewProducer. Zero wait values use the defaults.
type ProducerConfig struct {
	Broker       string
	RetryMax     int
	RetryBackoff time.Duration
	WaitAttempts int
	WaitDelay    time.Duration
}

func waitForKafka(brokers []string, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		config := sarama.NewConfig()
		config.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, config)
		if err == nil {
			client.Close()
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", i+1)
		time.Sleep(delay)
	}
	return fmt.Errorf("kafka not available after %d attempts", attempts)
}

// NewProducer waits for the broker and returns a producer that reports
// successes, as required by sarama's SyncProducer.
func NewProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	attempts, delay := cfg.WaitAttempts, cfg.WaitDelay
	if attempts <= 0 {
		attempts = defaultWaitAttempts
	}
	if delay <= 0 {
		delay = defaultWaitDelay
	}

	brokers := []string{cfg.Broker}
	if err := waitForKafka(brokers, attempts, delay); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = cfg.RetryMax
	config.Producer.Retry.Backoff = cfg.RetryBackoff

	return sarama.NewSyncProducer(brokers, config)
}
