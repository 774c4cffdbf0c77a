package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerUnreachableBroker(t *testing.T) {
	producer, err := NewProducer(ProducerConfig{
		Broker:       "127.0.0.1:1",
		RetryMax:     1,
		RetryBackoff: time.Millisecond,
		WaitAttempts: 1,
		WaitDelay:    time.Millisecond,
	})
	require.Error(t, err)
	assert.Nil(t, producer)
	assert.Contains(t, err.Error(), "kafka not available after 1 attempts")
}
