package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"bagshop/internal/producer"
	"bagshop/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []Email
	err  error
}

func (f *fakeSender) Send(e Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

type fakeReader struct {
	msgs   []kafka.Message
	errs   []error
	reads  int
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.reads++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func createdMessage(t *testing.T, ev service.OrderCreatedEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	raw, err := json.Marshal(producer.Envelope{
		Type:       service.EventOrderCreated,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.OrderID.String()), Value: raw}
}

func sampleEvent() service.OrderCreatedEvent {
	return service.OrderCreatedEvent{
		OrderID:       uuid.New(),
		ReferenceCode: "BS-ABCDEFGHIJ",
		CustomerID:    uuid.New(),
		CustomerEmail: "ann@example.com",
		CustomerName:  "Ann",
		Items: []service.OrderItemEvent{{
			ProductID: uuid.New(),
			Name:      "Canvas Tote",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("15.00"),
			LineTotal: decimal.RequireFromString("30.00"),
		}},
		Total:     decimal.RequireFromString("30.00"),
		Currency:  "USD",
		CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestHandle_OrderCreatedSendsConfirmation(t *testing.T) {
	s := &fakeSender{}
	c := &OrderEventConsumer{sender: s, log: zap.NewNop()}

	require.NoError(t, c.Handle(createdMessage(t, sampleEvent())))
	require.Len(t, s.sent, 1)

	e := s.sent[0]
	assert.Equal(t, "ann@example.com", e.To)
	assert.Equal(t, "order_confirmation", e.Template)
	assert.Contains(t, e.Subject, "BS-ABCDEFGHIJ")
	assert.Equal(t, "30.00", e.Data["Total"])
	assert.Equal(t, "2026-03-01 10:30", e.Data["OrderDate"])
}

func TestHandle_SkipsOtherEventsAndMissingEmail(t *testing.T) {
	s := &fakeSender{}
	c := &OrderEventConsumer{sender: s, log: zap.NewNop()}

	raw, _ := json.Marshal(producer.Envelope{Type: service.EventOrderStatusChanged, Payload: json.RawMessage(`{}`)})
	require.NoError(t, c.Handle(kafka.Message{Value: raw}))

	ev := sampleEvent()
	ev.CustomerEmail = ""
	require.NoError(t, c.Handle(createdMessage(t, ev)))

	assert.Empty(t, s.sent)
}

func TestHandle_BadPayload(t *testing.T) {
	c := &OrderEventConsumer{sender: &fakeSender{}, log: zap.NewNop()}
	assert.Error(t, c.Handle(kafka.Message{Value: []byte("not json")}))
}

func TestRun_ContinuesAfterSendFailureAndStopsOnEOF(t *testing.T) {
	r := &fakeReader{}
	r.msgs = append(r.msgs, createdMessage(t, sampleEvent()), createdMessage(t, sampleEvent()))
	s := &fakeSender{err: errors.New("smtp down")}
	c := &OrderEventConsumer{reader: r, sender: s, log: zap.NewNop()}

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, r.msgs)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

func TestConsumer_WaitsAfterReadError(t *testing.T) {
	broker := errors.New("broker unavailable")
	r := &fakeReader{errs: []error{broker, broker}}
	r.msgs = append(r.msgs, createdMessage(t, sampleEvent()))
	s := &fakeSender{}
	c := &OrderEventConsumer{reader: r, sender: s, log: zap.NewNop(), retryDelay: 20 * time.Millisecond}

	start := time.Now()
	require.NoError(t, c.Run(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 4, r.reads) // две ошибки, сообщение, EOF
	assert.Len(t, s.sent, 1)
}

func TestConsumer_StopsDuringRetryDelay(t *testing.T) {
	r := &fakeReader{errs: []error{errors.New("broker unavailable")}}
	c := &OrderEventConsumer{reader: r, sender: &fakeSender{}, log: zap.NewNop(), retryDelay: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
	assert.Equal(t, 1, r.reads)
}

func TestEmailSender_RendersTemplates(t *testing.T) {
	s := NewEmailSender(SMTPConfig{From: "shop@example.com"}, "../../templates")

	m, err := s.Build(Email{
		To:       "ann@example.com",
		Subject:  "Order BS-1 confirmed",
		Template: "order_confirmation",
		Data: map[string]any{
			"CustomerName":  "Ann <b>",
			"ReferenceCode": "BS-1",
			"Items": []map[string]any{
				{"Name": "Canvas Tote", "Quantity": 2, "UnitPrice": "15.00", "LineTotal": "30.00"},
			},
			"Total":     "30.00",
			"Currency":  "USD",
			"OrderDate": "2026-03-01 10:30",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com"}, m.GetHeader("To"))

	var sb strings.Builder
	_, err = m.WriteTo(&sb)
	require.NoError(t, err)
	out := sb.String()
	assert.Contains(t, out, "BS-1")
	assert.Contains(t, out, "Canvas Tote")
	// html/template экранирует имя
	assert.Contains(t, out, "Ann &lt;b&gt;")
}

func TestEmailSender_MissingTemplate(t *testing.T) {
	s := NewEmailSender(SMTPConfig{}, t.TempDir())
	_, err := s.Build(Email{To: "a@b.c", Template: "nope"})
	assert.Error(t, err)
}
