package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/logging"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	deadline bool
}

type fakePublisher struct {
	calls []published
	err   error
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, published{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return f.err
}

func TestWriter_WriteReport(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWithPublisher(pub, Config{Exchange: "spendview", RoutingKey: "reports"}, logging.Discard())
	stamp := time.Date(2021, 12, 31, 16, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return stamp }

	report := api.ReportEnvelope{Greeting: "Добрый день", Cards: []api.CardSummary{}}
	require.NoError(t, w.WriteReport(context.Background(), "main_page", report))

	require.Len(t, pub.calls, 1)
	call := pub.calls[0]
	assert.Equal(t, "spendview", call.exchange)
	assert.Equal(t, "reports", call.key)
	assert.True(t, call.deadline, "publish must be bounded by a timeout")

	msg := call.msg
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, stamp, msg.Timestamp)
	assert.Equal(t, "main_page", msg.Headers[HeaderReportName])
	_, err := uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	assert.Contains(t, string(msg.Body), "Добрый день")
	var decoded api.ReportEnvelope
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, report.Greeting, decoded.Greeting)
}

func TestWriter_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	w := NewWithPublisher(&fakePublisher{err: boom}, Config{Exchange: "x"}, logging.Discard())

	err := w.WriteReport(context.Background(), "r", []int{1})
	assert.ErrorIs(t, err, boom)
}

func TestWriter_UniqueMessageIDs(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWithPublisher(pub, Config{Exchange: "x"}, logging.Discard())

	for range 3 {
		require.NoError(t, w.WriteReport(context.Background(), "r", []int{}))
	}
	seen := map[string]bool{}
	for _, c := range pub.calls {
		assert.False(t, seen[c.msg.MessageId])
		seen[c.msg.MessageId] = true
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Config{Exchange: "x"}, nil)
	assert.Error(t, err)

	_, err = New(Config{URL: "amqp://localhost"}, nil)
	assert.Error(t, err)
}

func TestWriter_CloseWithoutConnection(t *testing.T) {
	w := NewWithPublisher(&fakePublisher{}, Config{Exchange: "x"}, nil)
	assert.NoError(t, w.Close())
}

// TestWriter_Integration publishes to a real broker and reads the message back.
func TestWriter_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.AmqpURL(ctx)
	require.NoError(t, err)

	w, err := New(Config{URL: url, Exchange: "spendview", RoutingKey: "reports"}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	conn, err := amqp091.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "reports", "spendview", false, nil))

	require.NoError(t, w.WriteReport(ctx, "report_file.json", []api.Transaction{{Category: "Супермаркеты"}}))

	require.Eventually(t, func() bool {
		msg, ok, err := ch.Get(q.Name, true)
		if err != nil || !ok {
			return false
		}
		return msg.Headers[HeaderReportName] == "report_file.json" &&
			strings.Contains(string(msg.Body), "Супермаркеты")
	}, 10*time.Second, 100*time.Millisecond)
}
