package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

type recordingAcker struct {
	acked    bool
	nacked   bool
	requeued bool
	rejected bool
}

func (a *recordingAcker) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *recordingAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}
func (a *recordingAcker) Reject(uint64, bool) error { a.rejected = true; return nil }

func newTestConsumer() *Consumer {
	return &Consumer{
		queueName:  "test",
		handlers:   make(map[string]MessageHandler),
		maxRetries: 3,
		logger:     logger.Nop(),
	}
}

func delivery(t *testing.T, acker amqp.Acknowledger, eventType string, headers amqp.Table) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", ReportFinalizedEvent{ReportID: "r1", LicensePlate: "CA 123"})
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: acker, Body: body, Headers: headers}
}

func TestConsumer_HandleMessage_Success(t *testing.T) {
	c := newTestConsumer()
	var got ReportFinalizedEvent
	var corr string
	c.RegisterHandler(EventReportFinalized, func(ctx context.Context, e *Event) error {
		corr = getCorrelationID(ctx)
		return e.UnmarshalData(&got)
	})

	acker := &recordingAcker{}
	c.handleMessage(context.Background(), delivery(t, acker, EventReportFinalized, nil))

	assert.True(t, acker.acked)
	assert.Equal(t, "r1", got.ReportID)
	assert.Equal(t, "CA 123", got.LicensePlate)
	assert.Equal(t, "corr-1", corr)
}

func TestConsumer_HandleMessage_Malformed(t *testing.T) {
	c := newTestConsumer()
	acker := &recordingAcker{}
	c.handleMessage(context.Background(), amqp.Delivery{Acknowledger: acker, Body: []byte("{nope")})
	assert.True(t, acker.rejected)
}

func TestConsumer_HandleMessage_NoHandler(t *testing.T) {
	c := newTestConsumer()
	acker := &recordingAcker{}
	c.handleMessage(context.Background(), delivery(t, acker, "something.else", nil))
	assert.True(t, acker.acked)
}

func TestConsumer_HandleMessage_Retry(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventReportFinalized, func(context.Context, *Event) error {
		return errors.New("bucket unreachable")
	})

	acker := &recordingAcker{}
	c.handleMessage(context.Background(), delivery(t, acker, EventReportFinalized, nil))
	assert.True(t, acker.nacked)
	assert.True(t, acker.requeued)

	exhausted := amqp.Table{"x-death": []interface{}{amqp.Table{"count": int64(3)}}}
	acker = &recordingAcker{}
	c.handleMessage(context.Background(), delivery(t, acker, EventReportFinalized, exhausted))
	assert.True(t, acker.rejected)
	assert.False(t, acker.nacked)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 0, getRetryCount(amqp.Delivery{}))
	assert.Equal(t, 2, getRetryCount(amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{amqp.Table{"count": int64(2)}},
	}}))
}

func TestNoopPublisher(t *testing.T) {
	var p EventPublisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), EventReportFinalized, nil))
}
