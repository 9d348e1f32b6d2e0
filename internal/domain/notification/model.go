package notification

import "time"

// Notification is one in-app message for a principal. Rows are written by
// gateway flows (consent claimed, verification decided) and read by the
// client's inbox.
type Notification struct {
	ID        string     `json:"id"`
	Principal string     `json:"-"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	KindConsentClaimed = "consent_claimed"
	KindConsentRevoked = "consent_revoked"
	KindKYCDecided     = "kyc_decided"
)
