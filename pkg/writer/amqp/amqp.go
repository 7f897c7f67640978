// Package amqp implements a ReportWriter that publishes reports to a RabbitMQ
// exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/ArionMiles/spendview/pkg/api"
)

// PublishTimeout bounds a single publish.
const PublishTimeout = 5 * time.Second

// HeaderReportName carries the report name on every message.
const HeaderReportName = "report_name"

// Config holds configuration for the AMQP writer.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Publisher is the subset of *amqp091.Channel the writer uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Writer publishes each report as one persistent JSON message.
type Writer struct {
	publisher  Publisher
	exchange   string
	routingKey string
	now        func() time.Time
	closers    []func() error
	logger     *slog.Logger
}

// New dials the broker, opens a channel and declares a durable direct
// exchange.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("amqp exchange is required")
	}

	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	w := NewWithPublisher(channel, cfg, logger)
	w.closers = []func() error{channel.Close, conn.Close}
	return w, nil
}

// NewWithPublisher creates a writer on an existing channel. The caller owns
// the channel.
func NewWithPublisher(p Publisher, cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		publisher:  p,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		now:        time.Now,
		logger:     logger.With("component", "amqp-writer"),
	}
}

// WriteReport publishes report as indented JSON. The message id is a fresh
// UUID and the report name travels in a header.
func (w *Writer) WriteReport(ctx context.Context, name string, report any) error {
	body, err := api.MarshalIndent(report, "    ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:     "application/json",
		ContentEncoding: "utf-8",
		DeliveryMode:    amqp091.Persistent,
		MessageId:       uuid.NewString(),
		Timestamp:       w.now(),
		Headers:         amqp091.Table{HeaderReportName: name},
		Body:            body,
	}

	if err := w.publisher.PublishWithContext(ctx, w.exchange, w.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publishing report %q: %w", name, err)
	}

	w.logger.InfoContext(ctx, "published report",
		"report", name,
		"message_id", msg.MessageId,
		"exchange", w.exchange,
		"routing_key", w.routingKey,
		"bytes", len(body))
	return nil
}

// Close releases the channel and connection opened by New.
func (w *Writer) Close() error {
	var errs []error
	for _, c := range w.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
