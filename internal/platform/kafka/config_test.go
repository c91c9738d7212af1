package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokerList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, BrokerList(" a:9092, ,b:9092 "))
	assert.Nil(t, BrokerList(""))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig()
	assert.Equal(t, "all", cfg.Acks)
	assert.Equal(t, "clubid.notifications", cfg.Topic)
}
