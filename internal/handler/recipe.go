package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/middleware"
	"github.com/iliyamo/recipe-backend/internal/model"
)

// RecipeService is what the saved-recipe endpoints need.
type RecipeService interface {
	Save(ctx context.Context, userID uint64, name string, ingredients []string, instructions string) (uint64, error)
	List(ctx context.Context, userID uint64) ([]model.SavedRecipe, error)
}

// RecipeHandler serves /save-recipe and /saved-recipes.  Both routes sit
// behind the bearer gate, so the user ID always comes from the token.
type RecipeHandler struct {
	Recipes RecipeService
	Log     *slog.Logger
}

func NewRecipeHandler(r RecipeService, log *slog.Logger) *RecipeHandler {
	return &RecipeHandler{Recipes: r, Log: log}
}

type saveRecipeReq struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}

// Save handles POST /save-recipe.
func (h *RecipeHandler) Save(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Access Denied: No token provided")
	}
	var req saveRecipeReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Recipes.Save(ctx, uid, req.Name, req.Ingredients, req.Instructions)
	if handled, werr := validationFailed(c, err); handled {
		return werr
	}
	if err != nil {
		return serverError(c, h.Log, "save recipe failed", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Recipe saved successfully", "id": id})
}

// List handles GET /saved-recipes.
func (h *RecipeHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Access Denied: No token provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	recipes, err := h.Recipes.List(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "list recipes failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"savedRecipes": recipes})
}
