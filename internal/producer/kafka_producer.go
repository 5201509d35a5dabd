package producer

import (
	"context"
	"encoding/json"
	"time"

	"bagshop/internal/service"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope — общий формат сообщений в топике заказов.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderEventProducer публикует события заказов; ключ сообщения — id заказа,
// чтобы события одного заказа шли в одну партицию.
type OrderEventProducer struct {
	writer messageWriter
	now    func() time.Time
}

var _ service.EventBus = (*OrderEventProducer)(nil)

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	return &OrderEventProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

func (p *OrderEventProducer) PublishOrderCreated(ctx context.Context, e service.OrderCreatedEvent) error {
	return p.publish(ctx, e.OrderID.String(), service.EventOrderCreated, e)
}

func (p *OrderEventProducer) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	return p.publish(ctx, e.OrderID.String(), service.EventOrderStatusChanged, e)
}

func (p *OrderEventProducer) publish(ctx context.Context, key, typ string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{Type: typ, OccurredAt: p.now().UTC(), Payload: raw})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(typ)},
		},
	})
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}
