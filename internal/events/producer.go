package events

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Producer publishes order events asynchronously so checkout latency never
// waits on the broker. A nil *Producer is valid and drops events, which keeps
// the stream optional in deployments without Kafka.
type Producer struct {
	w       *kafka.Writer
	service string
	log     *slog.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic, service string, log *slog.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		service: service,
		log:     log,
		inbox:   make(chan kafka.Message, 256),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	if p == nil {
		return
	}
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				// Flush whatever is queued before shutting down.
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						_ = p.w.Close()
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("publish event failed", "error", err)
	}
}

// Publish enqueues an event, keyed by order id so events for one order stay
// in partition order. Drops the event if the queue is full rather than block
// a request.
func (p *Producer) Publish(eventType string, orderID int64, payload []byte) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.service,
		Payload:      payload,
	}
	m := kafka.Message{
		Key:   []byte(strconv.FormatInt(orderID, 10)),
		Value: MustMarshal(ev),
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn("event queue full, dropping event", "event_type", eventType, "order_id", orderID)
	}
}

// WaitClosed blocks until the background writer has flushed and exited.
func (p *Producer) WaitClosed() {
	if p == nil {
		return
	}
	<-p.closeCh
}
