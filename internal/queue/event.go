// Package queue defines message payloads exchanged over the message broker.
package queue

import amqp "github.com/rabbitmq/amqp091-go"

// RecipeSavedQueue is the durable queue carrying RecipeSavedEvent.
const RecipeSavedQueue = "recipe.saved"

// RecipeSavedEvent is published after a recipe is stored.  It carries
// enough to log or count saves without querying the primary database.
type RecipeSavedEvent struct {
	RecipeID        uint64 `json:"recipe_id"`
	UserID          uint64 `json:"user_id"`
	RecipeName      string `json:"recipe_name"`
	IngredientCount int    `json:"ingredient_count"`
	SavedAt         string `json:"saved_at"`
}

// QueueDeclarer is the part of *amqp.Channel used to declare queues.
type QueueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// Declare ensures RecipeSavedQueue exists.  Publisher and consumer must
// agree on these arguments or the broker rejects the second declaration.
func Declare(ch QueueDeclarer) error {
	_, err := ch.QueueDeclare(
		RecipeSavedQueue, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	)
	return err
}
