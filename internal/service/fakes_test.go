package service

import (
	"context"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iliyamo/recipe-backend/internal/model"
	"github.com/iliyamo/recipe-backend/internal/queue"
	"github.com/iliyamo/recipe-backend/internal/repository"
)

// memUsers is an in-memory UserStore that enforces email uniqueness the
// way the UNIQUE index does.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uint64]model.User
	nextID  uint64
	calls   int
	failAll error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, email, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll != nil {
		return 0, m.failAll
	}
	for _, u := range m.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	m.byID[m.nextID] = model.User{ID: m.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	return m.nextID, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == repository.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll != nil {
		return model.User{}, m.failAll
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll != nil {
		return model.User{}, m.failAll
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (m *memRevocations) Revoke(_ context.Context, jti string, exp time.Time) error {
	if m.err != nil {
		return m.err
	}
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = exp
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

type memRecipes struct {
	rows  []model.SavedRecipe
	calls int
	err   error
}

func (m *memRecipes) Create(_ context.Context, userID uint64, name string, ingredients []string, instructions string) (uint64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	id := uint64(len(m.rows) + 1)
	m.rows = append(m.rows, model.SavedRecipe{
		ID: id, UserID: userID, RecipeName: name,
		Ingredients: append([]string(nil), ingredients...), Instructions: instructions,
	})
	return id, nil
}

func (m *memRecipes) ListByUser(_ context.Context, userID uint64) ([]model.SavedRecipe, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []model.SavedRecipe
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type capturePublisher struct {
	events []queue.RecipeSavedEvent
	err    error
}

func (p *capturePublisher) PublishRecipeSaved(_ context.Context, ev queue.RecipeSavedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type stubChat struct {
	reply    string
	err      error
	requests []openai.ChatCompletionRequest
	noChoice bool
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	if s.noChoice {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.reply},
		}},
	}, nil
}
