package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedEvents(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, 4)
	occurred := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	publisher.Publish(context.Background(), Event{
		Type:       TypeOrderCompleted,
		EntityID:   "ord-1",
		OccurredAt: occurred,
		Data:       map[string]any{"paymentId": "pay_1"},
	})
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !writer.closed {
		t.Fatal("writer was not closed")
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "ord-1" {
		t.Fatalf("key = %q", msg.Key)
	}
	var decoded struct {
		Type     string         `json:"type"`
		EntityID string         `json:"entityId"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeOrderCompleted || decoded.Data["paymentId"] != "pay_1" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestKafkaPublisherSwallowsWriteErrors(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{err: errors.New("broker unavailable")}
	publisher := NewKafkaPublisher(writer, 1)
	publisher.Publish(context.Background(), Event{Type: TypeContactCreated, EntityID: "msg-1"})
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisherDropsAfterClose(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, 1)
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	publisher.Publish(context.Background(), Event{Type: TypeOrderCreated, EntityID: "ord-1"})
	if err := publisher.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(writer.messages) != 0 {
		t.Fatalf("messages = %d, want 0", len(writer.messages))
	}
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var publisher Publisher = Nop{}
	publisher.Publish(context.Background(), Event{Type: TypeOrderCreated})
}
