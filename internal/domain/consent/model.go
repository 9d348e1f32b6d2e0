package consent

import (
	"time"

	"github.com/medrec/gateway/internal/platform/ledger"
)

// ActiveCode is the patient-facing view of a freshly generated consent
// code. ExpiresIn is derived from the server-stamped expiry at response
// time, so every client counts down against the same clock.
type ActiveCode struct {
	SessionID string    `json:"session_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int       `json:"expires_in_seconds"`
}

func toActiveCode(sc *ledger.SessionCode, now time.Time) *ActiveCode {
	remaining := int(sc.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &ActiveCode{
		SessionID: sc.SessionID,
		Code:      sc.Code,
		ExpiresAt: sc.ExpiresAt,
		ExpiresIn: remaining,
	}
}

// View is one entry of the patient's consent list.
type View struct {
	SessionID       string    `json:"session_id"`
	Code            string    `json:"code"`
	GrantedProvider string    `json:"granted_provider"`
	ProviderName    string    `json:"provider_name"`
	Claimed         bool      `json:"claimed"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func toView(c ledger.Consent, now time.Time) View {
	return View{
		SessionID:       c.SessionID,
		Code:            c.Code,
		GrantedProvider: c.GrantedProvider,
		ProviderName:    c.ProviderName,
		Claimed:         c.Claimed,
		Active:          now.Before(c.ExpiresAt),
		CreatedAt:       c.CreatedAt,
		ExpiresAt:       c.ExpiresAt,
	}
}

// ClaimRequest is the provider-side claim of a code read out by a patient.
type ClaimRequest struct {
	Code string `json:"code"`
}

// RevokeRequest names the codes to revoke. The operation is all or nothing:
// either every named code is revoked on the ledger or none is.
type RevokeRequest struct {
	Codes []string `json:"codes"`
}

// Event is pushed over the websocket hub when consent state changes.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

const (
	EventRevoked = "consent.revoked"
	EventClaimed = "consent.claimed"
)
