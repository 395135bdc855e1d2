package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/handler"
	"github.com/iliyamo/recipe-backend/internal/middleware"
)

// Deps are the handlers and the authenticator the route table is built
// from.
type Deps struct {
	Auth     *handler.AuthHandler
	Recipes  *handler.RecipeHandler
	Generate *handler.GenerateHandler
	Health   *handler.HealthHandler

	Authenticator       middleware.Authenticator
	GenerateRequireAuth bool
	Log                 *slog.Logger
}

// Routes returns the full route table.  Everything behind the bearer gate
// is declared with the same gate value.
func Routes(d Deps) []Route {
	bearer := []echo.MiddlewareFunc{middleware.RequireBearer(d.Authenticator, d.Log)}

	var generateGates []echo.MiddlewareFunc
	if d.GenerateRequireAuth {
		generateGates = bearer
	}

	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: d.Health.Root},
		{Method: http.MethodGet, Path: "/healthz", Handler: d.Health.Health},
		{Method: http.MethodGet, Path: "/test-db", Handler: d.Health.TestDB},

		{Method: http.MethodPost, Path: "/register", Handler: d.Auth.Register},
		{Method: http.MethodPost, Path: "/login", Handler: d.Auth.Login},
		{Method: http.MethodGet, Path: "/profile", Handler: d.Auth.Profile, Gates: bearer},
		{Method: http.MethodPost, Path: "/logout", Handler: d.Auth.Logout, Gates: bearer},

		{Method: http.MethodPost, Path: "/save-recipe", Handler: d.Recipes.Save, Gates: bearer},
		{Method: http.MethodGet, Path: "/saved-recipes", Handler: d.Recipes.List, Gates: bearer},

		{Method: http.MethodPost, Path: "/generate-recipe", Handler: d.Generate.Generate, Gates: generateGates},
	}
}
