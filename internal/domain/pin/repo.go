package pin

import (
	"context"
	"errors"
)

// ErrNotSet indicates no PIN exists for the principal.
var ErrNotSet = errors.New("pin not set")

// Repository persists one bcrypt hash per principal. The plaintext PIN never
// touches storage.
type Repository interface {
	Get(ctx context.Context, principal string) (hash string, err error)
	Upsert(ctx context.Context, principal, hash string) error
	Delete(ctx context.Context, principal string) error
}
