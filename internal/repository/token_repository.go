package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo records revoked session tokens in Redis, keyed by jti.  Each
// key lives exactly as long as the token would have, so the set never
// grows beyond the tokens that are still otherwise valid.
type TokenRepo struct {
	RDB    *redis.Client
	Prefix string
	now    func() time.Time
}

func NewTokenRepo(rdb *redis.Client, prefix string) *TokenRepo {
	if prefix == "" {
		prefix = "revoked"
	}
	return &TokenRepo{RDB: rdb, Prefix: prefix, now: time.Now}
}

func (r *TokenRepo) key(jti string) string { return r.Prefix + ":" + jti }

// Revoke marks jti as revoked until exp.  Tokens already past exp are
// ignored since verification rejects them anyway.
func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := exp.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.RDB.Set(ctx, r.key(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.RDB.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
