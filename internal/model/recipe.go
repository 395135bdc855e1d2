package model

import "time"

// SavedRecipe represents a row in the `saved_recipes` table.  Ingredients
// are kept in order; the repository stores them as JSON text and decodes
// them back into a slice on read.
type SavedRecipe struct {
	ID           uint64    `json:"id"`           // saved_recipes.id
	UserID       uint64    `json:"user_id"`      // saved_recipes.user_id (references users.id)
	RecipeName   string    `json:"recipe_name"`  // saved_recipes.recipe_name
	Ingredients  []string  `json:"ingredients"`  // saved_recipes.ingredients (JSON text)
	Instructions string    `json:"instructions"` // saved_recipes.instructions
	CreatedAt    time.Time `json:"created_at"`   // saved_recipes.created_at
}

// GeneratedRecipe is the structured recipe the language model is asked to
// produce.  Raw keeps the upstream text verbatim.
type GeneratedRecipe struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Raw          string   `json:"-"`
}
