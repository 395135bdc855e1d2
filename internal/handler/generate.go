package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/model"
	"github.com/iliyamo/recipe-backend/internal/service"
)

// RecipeGenerator is what /generate-recipe needs.
type RecipeGenerator interface {
	Generate(ctx context.Context, tags, ingredients []string) (model.GeneratedRecipe, error)
}

type GenerateHandler struct {
	Generator RecipeGenerator
	Log       *slog.Logger
}

func NewGenerateHandler(g RecipeGenerator, log *slog.Logger) *GenerateHandler {
	return &GenerateHandler{Generator: g, Log: log}
}

type generateReq struct {
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

// Generate handles POST /generate-recipe.  "recipe" is always the model's
// text verbatim; "result" is added when that text parses as a recipe.  An
// empty answer yields 502.
func (h *GenerateHandler) Generate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx := c.Request().Context()
	rec, err := h.Generator.Generate(ctx, req.Tags, req.Ingredients)
	if handled, werr := validationFailed(c, err); handled {
		return werr
	}
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"recipe": rec.Raw, "result": rec})
	case errors.Is(err, service.ErrMalformedUpstream) && rec.Raw != "":
		h.Log.WarnContext(ctx, "recipe text did not parse", slog.Any("error", err))
		return c.JSON(http.StatusOK, echo.Map{"recipe": rec.Raw})
	case errors.Is(err, service.ErrMalformedUpstream):
		h.Log.WarnContext(ctx, "empty answer from upstream", slog.Any("error", err))
		return message(c, http.StatusBadGateway, "Upstream returned no recipe")
	default:
		h.Log.ErrorContext(ctx, "error generating recipe", slog.Any("error", err))
		return message(c, http.StatusInternalServerError, "Failed to generate recipe")
	}
}
