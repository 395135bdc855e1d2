package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/recipe-backend/internal/model"
	"github.com/iliyamo/recipe-backend/internal/queue"
)

// RecipeStore is the subset of the recipe repository used here.
type RecipeStore interface {
	Create(ctx context.Context, userID uint64, name string, ingredients []string, instructions string) (uint64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.SavedRecipe, error)
}

// EventPublisher delivers recipe events.  Failures never fail the request.
type EventPublisher interface {
	PublishRecipeSaved(ctx context.Context, ev queue.RecipeSavedEvent) error
}

type saveInput struct {
	Name         string   `json:"name" validate:"notblank,max=255"`
	Ingredients  []string `json:"ingredients" validate:"min=1,dive,notblank"`
	Instructions string   `json:"instructions" validate:"notblank"`
}

const (
	saveRequiredMessage = "Recipe name, ingredients, and instructions are required"
	publishTimeout      = 2 * time.Second
)

// Recipes saves and lists recipes scoped to a user.
type Recipes struct {
	store  RecipeStore
	events EventPublisher // nil disables events
	log    *slog.Logger
	v      *validator.Validate
	now    func() time.Time
}

// NewRecipes wires the recipe service.  events may be nil.
func NewRecipes(store RecipeStore, events EventPublisher, log *slog.Logger) *Recipes {
	return &Recipes{store: store, events: events, log: log, v: newValidator(), now: time.Now}
}

// Save stores a recipe for userID and returns its ID.
func (r *Recipes) Save(ctx context.Context, userID uint64, name string, ingredients []string, instructions string) (uint64, error) {
	in := saveInput{Name: name, Ingredients: ingredients, Instructions: instructions}
	if err := validateStruct(r.v, in, nil); err != nil {
		if ve, ok := err.(*ValidationError); ok && ve.failed("notblank", "min") {
			ve.Fields = append([]FieldError{{Field: "recipe", Message: saveRequiredMessage}}, ve.Fields...)
		}
		return 0, err
	}

	id, err := r.store.Create(ctx, userID, name, ingredients, instructions)
	if err != nil {
		return 0, fmt.Errorf("create recipe: %w", err)
	}

	if r.events != nil {
		ev := queue.RecipeSavedEvent{
			RecipeID:        id,
			UserID:          userID,
			RecipeName:      name,
			IngredientCount: len(ingredients),
			SavedAt:         r.now().UTC().Format(time.RFC3339),
		}
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := r.events.PublishRecipeSaved(pctx, ev)
		cancel()
		if err != nil {
			r.log.WarnContext(ctx, "publish recipe.saved", slog.Uint64("recipe_id", id), slog.Any("error", err))
		}
	}
	return id, nil
}

// List returns userID's recipes in insertion order; never nil.
func (r *Recipes) List(ctx context.Context, userID uint64) ([]model.SavedRecipe, error) {
	out, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if out == nil {
		out = []model.SavedRecipe{}
	}
	return out, nil
}
