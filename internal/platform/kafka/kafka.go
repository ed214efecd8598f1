// Package kafka wraps kafka-go writers for fire-and-forget event publication.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDisabled indicates no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client holds the broker list parsed from configuration.
type Client struct {
	Brokers []string
}

// NewClient parses a comma-separated broker list. Blank entries are skipped.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

// Enabled reports whether any broker is configured.
func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// NewWriter builds a writer for topic keyed by message key.
func (c *Client) NewWriter(topic string) (*kafka.Writer, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}, nil
}

// MessageWriter is the subset of *kafka.Writer used for publication.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublishJSON marshals payload and writes it under key.
func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	if writer == nil {
		return ErrDisabled
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}
