package consent

import (
	"context"
	"time"
)

// AuditEntry records one consent operation attempted through the gateway.
// The ledger keeps its own authoritative log; this trail exists so operators
// can answer "what did this gateway do and when" without a ledger query.
type AuditEntry struct {
	ID        string
	Principal string
	Action    string
	Codes     []string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

const (
	ActionGenerate = "generate"
	ActionClaim    = "claim"
	ActionRevoke   = "revoke"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

type AuditRepository interface {
	Record(ctx context.Context, e *AuditEntry) error
	Recent(ctx context.Context, principal string, limit int) ([]AuditEntry, error)
}
