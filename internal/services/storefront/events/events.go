// Package events publishes storefront domain events. Publication is best
// effort and never fails the request that produced the event.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	platformkafka "github.com/louisbranch/paidportfolio/internal/platform/kafka"
)

// Event types.
const (
	TypeOrderCreated         = "order.created"
	TypeOrderCompleted       = "order.completed"
	TypeContactCreated       = "contact.created"
	TypeCustomRequestCreated = "custom_request.created"
)

// Event is one published fact. EntityID is the partition key.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// Publisher accepts events without reporting failures to the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) {}

const (
	defaultBuffer = 256
	publishBudget = 5 * time.Second
)

// KafkaPublisher queues events and writes them from one background goroutine.
// A full queue drops the event with a log line.
type KafkaPublisher struct {
	writer platformkafka.MessageWriter
	queue  chan Event

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewKafkaPublisher starts the writer loop. buffer <= 0 uses a default size.
func NewKafkaPublisher(writer platformkafka.MessageWriter, buffer int) *KafkaPublisher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	p := &KafkaPublisher{
		writer: writer,
		queue:  make(chan Event, buffer),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues event.
func (p *KafkaPublisher) Publish(_ context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case <-p.closed:
		log.Printf("event dropped type=%s entity=%s reason=publisher closed", event.Type, event.EntityID)
		return
	default:
	}
	select {
	case p.queue <- event:
	default:
		log.Printf("event dropped type=%s entity=%s reason=queue full", event.Type, event.EntityID)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for {
		select {
		case event := <-p.queue:
			p.write(event)
		case <-p.closed:
			for {
				select {
				case event := <-p.queue:
					p.write(event)
				default:
					return
				}
			}
		}
	}
}

func (p *KafkaPublisher) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishBudget)
	defer cancel()
	if err := platformkafka.PublishJSON(ctx, p.writer, event.EntityID, event); err != nil {
		log.Printf("event publish failed type=%s entity=%s err=%v", event.Type, event.EntityID, err)
	}
}

// Close drains queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		<-p.done
		if p.writer != nil {
			err = p.writer.Close()
		}
	})
	return err
}
