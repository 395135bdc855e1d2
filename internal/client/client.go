// Package client is a typed HTTP client for the recipe API.  It keeps the
// bearer token returned by Login and sends it on gated routes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/recipe-backend/internal/model"
)

// GenerateAttempts is how many times GenerateRecipe tries before giving up.
const GenerateAttempts = 3

// FieldError is one entry of a validation failure's "errors" list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Profile is the body of GET /profile.
type Profile struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool { return e.Status >= http.StatusInternalServerError }

// ErrDecode wraps a response body that could not be decoded.
var ErrDecode = errors.New("undecodable response body")

// Client talks to one API base URL.  It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithToken seeds the bearer token, e.g. one stored by a previous login.
func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// ----- API -----

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateResult is the body of a successful generation.  Result is nil
// when the model's text did not parse as a recipe; Recipe always holds it.
type GenerateResult struct {
	Recipe string                 `json:"recipe"`
	Result *model.GeneratedRecipe `json:"result,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/register", credentials{email, password}, nil)
}

// Login authenticates and remembers the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", credentials{email, password}, &out); err != nil {
		return LoginResult{}, err
	}
	c.setToken(out.Token)
	return out, nil
}

// Logout revokes the current token on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out struct {
		User Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/profile", nil, &out)
	return out.User, err
}

// SaveRecipe stores a recipe and returns its ID.
func (c *Client) SaveRecipe(ctx context.Context, name string, ingredients []string, instructions string) (uint64, error) {
	in := struct {
		Name         string   `json:"name"`
		Ingredients  []string `json:"ingredients"`
		Instructions string   `json:"instructions"`
	}{name, ingredients, instructions}
	var out struct {
		ID uint64 `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/save-recipe", in, &out)
	return out.ID, err
}

func (c *Client) SavedRecipes(ctx context.Context) ([]model.SavedRecipe, error) {
	var out struct {
		SavedRecipes []model.SavedRecipe `json:"savedRecipes"`
	}
	if err := c.do(ctx, http.MethodGet, "/saved-recipes", nil, &out); err != nil {
		return nil, err
	}
	if out.SavedRecipes == nil {
		out.SavedRecipes = []model.SavedRecipe{}
	}
	return out.SavedRecipes, nil
}

// GenerateRecipe asks the server for a recipe.  It makes up to
// GenerateAttempts back-to-back attempts, retrying on transport errors,
// 5xx answers and bodies that do not decode.  A 4xx answer is returned
// at once.  After the last attempt the last error is returned.
func (c *Client) GenerateRecipe(ctx context.Context, tags, ingredients []string) (GenerateResult, error) {
	in := struct {
		Tags        []string `json:"tags"`
		Ingredients []string `json:"ingredients"`
	}{tags, ingredients}

	var lastErr error
	for attempt := 1; attempt <= GenerateAttempts; attempt++ {
		var out GenerateResult
		err := c.do(ctx, http.MethodPost, "/generate-recipe", in, &out)
		if err == nil {
			if out.Result != nil {
				out.Result.Raw = out.Recipe
			}
			return out, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return GenerateResult{}, fmt.Errorf("generate recipe: %w", lastErr)
}

func retryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Temporary()
	}
	// transport failures and ErrDecode
	return true
}

// do sends one request.  in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{Status: resp.StatusCode}
		var fail struct {
			Message string               `json:"message"`
			Errors  []FieldError `json:"errors"`
		}
		if json.Unmarshal(raw, &fail) == nil {
			ae.Message, ae.Fields = fail.Message, fail.Errors
		}
		return ae
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
