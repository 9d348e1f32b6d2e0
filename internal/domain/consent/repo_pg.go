package consent

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditRepoPG struct{ pool *pgxpool.Pool }

func NewAuditRepoPG(pool *pgxpool.Pool) AuditRepository {
	return &auditRepoPG{pool: pool}
}

func (r *auditRepoPG) Record(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consent_audit (id, principal, action, codes, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Principal, e.Action, e.Codes, e.Outcome, e.Detail)
	return err
}

func (r *auditRepoPG) Recent(ctx context.Context, principal string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, principal, action, codes, outcome, detail, created_at
		FROM consent_audit
		WHERE principal = $1
		ORDER BY created_at DESC
		LIMIT $2`, principal, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Principal, &e.Action, &e.Codes, &e.Outcome, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
