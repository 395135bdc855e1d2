package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/recipe-backend/internal/model"
	"github.com/iliyamo/recipe-backend/internal/repository"
	"github.com/iliyamo/recipe-backend/internal/utils"
)

// UserStore is the subset of the user repository the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RevocationStore remembers logged-out tokens until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Profile is the public view of a user.
type Profile struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var authMessages = map[string]string{
	"email.required":    "Please enter a valid email",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters long",
	"password.max":      "Password must be at most 72 bytes long",
}

// Auth implements registration, login, profile lookup and session
// revocation.
type Auth struct {
	users   UserStore
	tokens  *utils.TokenIssuer
	revoked RevocationStore // nil disables logout
	cost    int
	log     *slog.Logger
	v       *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

// NewAuth wires the auth service.  revoked may be nil.
func NewAuth(users UserStore, tokens *utils.TokenIssuer, revoked RevocationStore, cost int, log *slog.Logger) *Auth {
	return &Auth{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		cost:    cost,
		log:     log,
		v:       newValidator(),
	}
}

// Register creates a user after validating input and checking that the
// email is free.  The unique index still guards the window between the
// check and the insert.
func (a *Auth) Register(ctx context.Context, email, password string) error {
	in := registerInput{Email: repository.NormalizeEmail(email), Password: password}
	if err := validateStruct(a.v, in, authMessages); err != nil {
		return err
	}

	exists, err := a.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return ErrEmailExists
	}

	hash, err := utils.HashPassword(in.Password, a.cost)
	if err != nil {
		if utils.IsPasswordTooLong(err) {
			return invalid("password", authMessages["password.max"])
		}
		return fmt.Errorf("hash password: %w", err)
	}
	id, err := a.users.Create(ctx, in.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	a.log.InfoContext(ctx, "user registered", slog.Uint64("user_id", id))
	return nil
}

// Login checks credentials and issues a session token.  Unknown emails and
// wrong passwords both yield ErrInvalidCredentials, and both pay for one
// bcrypt comparison.
func (a *Auth) Login(ctx context.Context, email, password string) (utils.AccessToken, error) {
	in := loginInput{Email: repository.NormalizeEmail(email), Password: password}
	if err := validateStruct(a.v, in, authMessages); err != nil {
		return utils.AccessToken{}, err
	}

	u, err := a.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.VerifyPassword(a.dummy(), in.Password)
			return utils.AccessToken{}, ErrInvalidCredentials
		}
		return utils.AccessToken{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return utils.AccessToken{}, ErrInvalidCredentials
	}

	tok, err := a.tokens.Issue(utils.SessionUser{ID: u.ID, Email: u.Email})
	if err != nil {
		return utils.AccessToken{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// dummy is a hash of a random-looking string at the configured cost, used
// to keep the unknown-user path as slow as the wrong-password path.
func (a *Auth) dummy() string {
	a.dummyOnce.Do(func() {
		h, err := utils.HashPassword("recipe-backend-timing-pad", a.cost)
		if err != nil {
			a.log.Warn("dummy hash", slog.Any("error", err))
		}
		a.dummyHash = h
	})
	return a.dummyHash
}

// Profile returns the public fields of userID.
func (a *Auth) Profile(ctx context.Context, userID uint64) (Profile, error) {
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}
	return Profile{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}, nil
}

// Authenticate verifies a bearer token and checks it has not been revoked.
// A revocation store outage is logged and the token is accepted.
func (a *Auth) Authenticate(ctx context.Context, raw string) (*utils.SessionClaims, error) {
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if a.revoked == nil || claims.ID == "" {
		return claims, nil
	}
	revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		a.log.WarnContext(ctx, "revocation lookup failed", slog.Any("error", err))
		return claims, nil
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the presented token until it would have expired.
func (a *Auth) Logout(ctx context.Context, claims *utils.SessionClaims) error {
	if a.revoked == nil {
		return ErrRevocationUnavailable
	}
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return utils.ErrTokenInvalid
	}
	if err := a.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
