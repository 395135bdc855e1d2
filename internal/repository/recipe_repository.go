package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/recipe-backend/internal/model"
)

// RecipeRepo persists saved recipes.  Ingredients are stored as a JSON
// array in a TEXT column so their order survives the round trip.
type RecipeRepo struct{ DB *sql.DB }

func NewRecipeRepo(db *sql.DB) *RecipeRepo { return &RecipeRepo{DB: db} }

// Create inserts a recipe owned by userID and returns its ID.
func (r *RecipeRepo) Create(ctx context.Context, userID uint64, name string, ingredients []string, instructions string) (uint64, error) {
	encoded, err := json.Marshal(ingredients)
	if err != nil {
		return 0, fmt.Errorf("encode ingredients: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO saved_recipes (user_id, recipe_name, ingredients, instructions) VALUES (?,?,?,?)",
		userID, name, string(encoded), instructions)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns every recipe of userID in insertion order.  The result
// is never nil.
func (r *RecipeRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SavedRecipe, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,recipe_name,ingredients,instructions,created_at FROM saved_recipes WHERE user_id=? ORDER BY id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SavedRecipe, 0)
	for rows.Next() {
		var (
			rec model.SavedRecipe
			raw string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RecipeName, &raw, &rec.Instructions, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &rec.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients of recipe %d: %w", rec.ID, err)
		}
		if rec.Ingredients == nil {
			rec.Ingredients = []string{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
