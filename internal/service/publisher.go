package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/recipe-backend/internal/queue"
)

// DefaultDialTimeout bounds connecting and the AMQP handshake when the
// caller's context carries no earlier deadline.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends domain events to RabbitMQ.  It dials once per publish.
// Errors are logged and returned; callers treat them as non-fatal.
type Publisher struct {
	URL         string
	DialTimeout time.Duration
	log         *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{URL: url, DialTimeout: DefaultDialTimeout, log: log}
}

// dialTimeout is DialTimeout, shortened to ctx's remaining time.
func (p *Publisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// PublishRecipeSaved publishes ev to the durable recipe.saved queue as a
// persistent message.
func (p *Publisher) PublishRecipeSaved(ctx context.Context, ev queue.RecipeSavedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
	})
	if err != nil {
		p.log.WarnContext(ctx, "rabbitmq: dial failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WarnContext(ctx, "rabbitmq: channel open failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if err := queue.Declare(ch); err != nil {
		p.log.WarnContext(ctx, "rabbitmq: queue declare failed", slog.Any("error", err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                     // default exchange
		queue.RecipeSavedQueue, // routing key = queue name
		false,                  // mandatory
		false,                  // immediate
		pub,
	); err != nil {
		p.log.WarnContext(ctx, "rabbitmq: publish failed", slog.Any("error", err))
		return err
	}
	return nil
}
