package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RecipeLogFile is the file, inside the consumer's log directory, that
// receives one line per saved recipe.
const RecipeLogFile = "recipes.log"

// StartRecipeConsumer connects to RabbitMQ, declares the recipe.saved queue
// and appends each message to <logDir>/recipes.log.  It reconnects with
// exponential backoff until ctx is cancelled, then returns nil.  Messages
// that cannot be processed are rejected without requeue.
func StartRecipeConsumer(ctx context.Context, url, logDir string, log *slog.Logger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("recipe-consumer: failed to dial broker", slog.Any("error", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logDir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("recipe-consumer: consume loop ended; reconnecting", slog.Any("error", err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("recipe-consumer: set QoS failed", slog.Any("error", err))
	}
	if err := Declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, RecipeSavedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleMessage(logDir, d.Body); err != nil {
			log.Warn("recipe-consumer: handle message failed", slog.Any("error", err))
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes a RecipeSavedEvent and appends it to the recipe log.
func HandleMessage(logDir string, body []byte) error {
	var ev RecipeSavedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.RecipeID == 0 || ev.UserID == 0 {
		return errors.New("event missing recipe_id or user_id")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, RecipeLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev RecipeSavedEvent) string {
	name := strings.ReplaceAll(ev.RecipeName, "\"", "'")
	return fmt.Sprintf("[%s] Recipe saved | recipe_id=%d | user_id=%d | name=\"%s\" | ingredients=%d\n",
		ev.SavedAt, ev.RecipeID, ev.UserID, name, ev.IngredientCount)
}
