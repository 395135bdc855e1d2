package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"

	"github.com/iliyamo/recipe-backend/internal/model"
)

// ChatCompleter is the part of *openai.Client the generator calls.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	systemPrompt     = "You are a professional chef and an expert in generating structured JSON-formatted recipes."
	defaultMaxTokens = 1000
	generateRequired = "Tags and ingredients are required"
)

const recipeTemplate = `{
  "name": "Dish Name",
  "description": "Short description of the dish",
  "ingredients": [
    "Quantity and description of ingredient 1",
    "Quantity and description of ingredient 2"
  ],
  "instructions": [
    "description of the step 1",
    "description of the step 2"
  ]
}`

type generateInput struct {
	Tags        []string `json:"tags" validate:"min=1"`
	Ingredients []string `json:"ingredients" validate:"min=1"`
}

// GeneratorConfig holds the fixed request parameters.
type GeneratorConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Generator asks a chat-completion model for a recipe and parses the answer.
type Generator struct {
	client ChatCompleter
	cfg    GeneratorConfig
	log    *slog.Logger
	v      *validator.Validate
	addOn  func() float64
}

// NewGenerator wires the generation proxy.
func NewGenerator(client ChatCompleter, cfg GeneratorConfig, log *slog.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Generator{client: client, cfg: cfg, log: log, v: newValidator(), addOn: rand.Float64}
}

// Generate builds the prompt from tags and ingredients, calls the model and
// returns the parsed recipe with the raw text attached.  A model failure is
// ErrUpstream; an answer that is not a recipe is ErrMalformedUpstream and
// still carries the raw text.
func (g *Generator) Generate(ctx context.Context, tags, ingredients []string) (model.GeneratedRecipe, error) {
	in := generateInput{Tags: compact(tags), Ingredients: compact(ingredients)}
	if err := validateStruct(g.v, in, map[string]string{
		"tags.min":        generateRequired,
		"ingredients.min": generateRequired,
	}); err != nil {
		return model.GeneratedRecipe{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:     g.cfg.Model,
		Messages:  BuildMessages(in.Tags, in.Ingredients, g.addOn()),
		MaxTokens: g.cfg.MaxTokens,
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return model.GeneratedRecipe{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	g.log.DebugContext(ctx, "recipe generated",
		slog.String("model", req.Model),
		slog.Duration("took", time.Since(start)),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return model.GeneratedRecipe{}, fmt.Errorf("%w: no choices returned", ErrMalformedUpstream)
	}
	raw := resp.Choices[0].Message.Content
	rec, err := ParseRecipe(raw)
	if err != nil {
		return model.GeneratedRecipe{Raw: raw}, err
	}
	return rec, nil
}

// BuildMessages returns the system and user messages for one request.
// addOn is a random decimal that makes otherwise identical prompts differ.
func BuildMessages(tags, ingredients []string, addOn float64) []openai.ChatCompletionMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "Ingredients: %s\n\n", strings.Join(ingredients, ", "))
	b.WriteString("Please provide a recipe in the following JSON format:\n\n")
	b.WriteString(recipeTemplate)
	fmt.Fprintf(&b, "\n\nAdd-on: %v\n\n", addOn)
	b.WriteString("Make sure to strictly follow the format, without any extra text or comments.")

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: b.String()},
	}
}

// stringList accepts either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ParseRecipe extracts the recipe object from model output.  Markdown code
// fences and text around the outermost braces are tolerated; a missing
// name, ingredients or instructions is not.
func ParseRecipe(raw string) (model.GeneratedRecipe, error) {
	body := strings.TrimSpace(raw)
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return model.GeneratedRecipe{Raw: raw}, fmt.Errorf("%w: no JSON object found", ErrMalformedUpstream)
	}

	var parsed struct {
		Name         string     `json:"name"`
		Description  string     `json:"description"`
		Ingredients  stringList `json:"ingredients"`
		Instructions stringList `json:"instructions"`
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &parsed); err != nil {
		return model.GeneratedRecipe{Raw: raw}, fmt.Errorf("%w: %v", ErrMalformedUpstream, err)
	}

	rec := model.GeneratedRecipe{
		Name:         strings.TrimSpace(parsed.Name),
		Description:  strings.TrimSpace(parsed.Description),
		Ingredients:  compact(parsed.Ingredients),
		Instructions: compact(parsed.Instructions),
		Raw:          raw,
	}
	switch {
	case rec.Name == "":
		return rec, fmt.Errorf("%w: missing name", ErrMalformedUpstream)
	case len(rec.Ingredients) == 0:
		return rec, fmt.Errorf("%w: missing ingredients", ErrMalformedUpstream)
	case len(rec.Instructions) == 0:
		return rec, fmt.Errorf("%w: missing instructions", ErrMalformedUpstream)
	}
	return rec, nil
}

// compact trims every entry and drops the empty ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
