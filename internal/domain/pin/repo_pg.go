package pin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Get(ctx context.Context, principal string) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx,
		`SELECT pin_hash FROM app_pin WHERE principal = $1`, principal).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (r *repoPG) Upsert(ctx context.Context, principal, hash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_pin (principal, pin_hash)
		VALUES ($1, $2)
		ON CONFLICT (principal)
		DO UPDATE SET pin_hash = EXCLUDED.pin_hash, updated_at = NOW()`,
		principal, hash)
	return err
}

func (r *repoPG) Delete(ctx context.Context, principal string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM app_pin WHERE principal = $1`, principal)
	return err
}
