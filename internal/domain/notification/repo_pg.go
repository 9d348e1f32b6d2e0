package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification (id, principal, kind, title, body)
		VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.Principal, n.Kind, n.Title, n.Body)
	return err
}

func (r *repoPG) ListByPrincipal(ctx context.Context, principal string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, principal, kind, title, body, read_at, created_at
		FROM notification
		WHERE principal = $1
		ORDER BY created_at DESC
		LIMIT $2`, principal, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Principal, &n.Kind, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repoPG) UnreadCount(ctx context.Context, principal string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notification
		WHERE principal = $1 AND read_at IS NULL`, principal).Scan(&count)
	return count, err
}

func (r *repoPG) MarkRead(ctx context.Context, principal, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification SET read_at = NOW()
		WHERE id = $1 AND principal = $2 AND read_at IS NULL`, id, principal)
	return err
}

func (r *repoPG) MarkAllRead(ctx context.Context, principal string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification SET read_at = NOW()
		WHERE principal = $1 AND read_at IS NULL`, principal)
	return err
}
