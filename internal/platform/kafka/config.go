// Package kafka holds shared broker settings for the notification topic.
package kafka

import (
	"strings"
	"time"
)

// ProducerConfig holds configuration for the Kafka producer.
type ProducerConfig struct {
	Brokers           string
	Acks              string
	Retries           int
	DeliveryTimeout   time.Duration
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// DefaultProducerConfig returns defaults for the notifications topic.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Acks:              "all",
		Retries:           3,
		DeliveryTimeout:   30 * time.Second,
		Topic:             "clubid.notifications",
		Partitions:        3,
		ReplicationFactor: 1,
	}
}

// BrokerList splits a comma separated broker string, dropping blanks.
func BrokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
