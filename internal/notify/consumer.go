package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"bagshop/internal/producer"
	"bagshop/internal/service"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// readRetryDelay — пауза после ошибки чтения, чтобы не крутить цикл,
// пока брокер недоступен.
const readRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrderEventConsumer читает топик заказов и шлёт покупателю письма.
type OrderEventConsumer struct {
	reader     messageReader
	sender     Sender
	log        *zap.Logger
	retryDelay time.Duration
}

func NewOrderEventConsumer(brokers []string, groupID, topic string, sender Sender, log *zap.Logger) *OrderEventConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &OrderEventConsumer{reader: r, sender: sender, log: log, retryDelay: readRetryDelay}
}

func (c *OrderEventConsumer) Run(ctx context.Context) error {
	c.log.Info("Kafka consumer запущен")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Error("Ошибка чтения сообщения", zap.Error(err), zap.Duration("retry_in", c.retryDelay))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}
		if err := c.Handle(m); err != nil {
			c.log.Error("Не удалось обработать событие заказа",
				zap.ByteString("key", m.Key),
				zap.Error(err),
			)
		}
	}
}

// Handle разбирает одно сообщение. Неизвестные типы событий пропускаются.
func (c *OrderEventConsumer) Handle(m kafka.Message) error {
	var env producer.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case service.EventOrderCreated:
		var ev service.OrderCreatedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.orderCreated(ev)
	default:
		c.log.Debug("Событие пропущено", zap.String("type", env.Type))
		return nil
	}
}

func (c *OrderEventConsumer) orderCreated(ev service.OrderCreatedEvent) error {
	if ev.CustomerEmail == "" {
		c.log.Warn("В событии нет email покупателя", zap.String("order_id", ev.OrderID.String()))
		return nil
	}

	items := make([]map[string]any, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, map[string]any{
			"Name":      it.Name,
			"Quantity":  it.Quantity,
			"UnitPrice": it.UnitPrice.StringFixed(2),
			"LineTotal": it.LineTotal.StringFixed(2),
		})
	}

	err := c.sender.Send(Email{
		To:       ev.CustomerEmail,
		Subject:  "Order " + ev.ReferenceCode + " confirmed",
		Template: "order_confirmation",
		Data: map[string]any{
			"CustomerName":  ev.CustomerName,
			"ReferenceCode": ev.ReferenceCode,
			"Items":         items,
			"Total":         ev.Total.StringFixed(2),
			"Currency":      ev.Currency,
			"OrderDate":     ev.CreatedAt.Format("2006-01-02 15:04"),
		},
	})
	if err != nil {
		return err
	}
	c.log.Info("Письмо о заказе отправлено",
		zap.String("order_id", ev.OrderID.String()),
		zap.String("to", ev.CustomerEmail),
	)
	return nil
}

func (c *OrderEventConsumer) Close() error { return c.reader.Close() }
