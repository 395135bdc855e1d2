package utils // package utils provides helpers for password hashing and session tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed is returned when the input is not a JWT at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid is returned for bad signatures, unexpected algorithms
	// and unusable claims.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned when exp is not after the current time.
	ErrTokenExpired = errors.New("token expired")
)

// SessionUser is the identity carried inside a session token.
type SessionUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// SessionClaims is the signed claim set: {user:{id,email}} plus the
// registered sub, jti, iat and exp claims.
type SessionClaims struct {
	User SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// AccessToken is a signed session token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	ID    string    // jti, used for revocation
	Exp   time.Time // UTC expiration time
}

// TokenIssuer signs and verifies HS256 session tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer.  ttl is the lifetime of every token issued.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// TTL is the lifetime applied to issued tokens.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue builds and signs a token for user.
func (i *TokenIssuer) Issue(user SessionUser) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	jti := uuid.NewString()
	claims := SessionClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// Verify parses raw, checks the HMAC signature and the expiry, and returns
// the claims.  The error is one of ErrTokenMalformed, ErrTokenInvalid or
// ErrTokenExpired.
func (i *TokenIssuer) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if !tok.Valid || claims.User.ID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
