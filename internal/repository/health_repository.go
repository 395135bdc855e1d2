package repository

import (
	"context"
	"database/sql"
)

// HealthRepo runs the trivial query behind the database check endpoint.
type HealthRepo struct{ DB *sql.DB }

func NewHealthRepo(db *sql.DB) *HealthRepo { return &HealthRepo{DB: db} }

// SelectOne executes SELECT 1 and returns the scanned value.
func (r *HealthRepo) SelectOne(ctx context.Context) (int, error) {
	var v int
	err := r.DB.QueryRowContext(ctx, "SELECT 1").Scan(&v)
	return v, err
}
