package ledger

import "context"

// Actor is the typed surface of the remote canisters. Query methods are
// read-only; update methods mutate ledger state. Implementations must return
// *Error for failures reported by the canisters so that callers can branch
// on the tag.
type Actor interface {
	// Patient registry.
	GetPatientInfo(ctx context.Context, principal string) (*PatientWithNIK, error)
	RegisterPatient(ctx context.Context, principal string, p Patient, nikHash string) error
	GetPatientInfoWithConsent(ctx context.Context, sessionID string) (*PatientWithNIK, error)

	// EMR registry.
	EMRListWithSession(ctx context.Context, sessionID string, page, limit int) ([]EMRHeader, int, error)
	EMRListPatient(ctx context.Context, principal string, page, limit int) ([]EMRHeader, int, error)

	// Consent.
	CreateConsent(ctx context.Context, principal string) (*SessionCode, error)
	ClaimConsent(ctx context.Context, providerPrincipal, code string) (*SessionCode, error)
	ConsentList(ctx context.Context, principal string) ([]Consent, error)
	RevokeConsent(ctx context.Context, principal string, codes []string) error

	// Provider registry.
	RegisterNewProvider(ctx context.Context, adminPrincipal, providerPrincipal, displayName, address string) (*Provider, error)
	GetProviderBatch(ctx context.Context, ids []string) ([]Provider, error)
	GetProviderInfoWithPrincipal(ctx context.Context, principal string) (*Provider, error)
	SuspendProvider(ctx context.Context, adminPrincipal, providerID string) error
	UnsuspendProvider(ctx context.Context, adminPrincipal, providerID string) error

	// Administration.
	BindAdmin(ctx context.Context, callerPrincipal, newAdminPrincipal string) error
	GetLogs(ctx context.Context, adminPrincipal string, page, limit int) ([]LogEntry, int, error)
}
