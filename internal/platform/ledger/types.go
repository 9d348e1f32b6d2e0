package ledger

import "time"

// KYCStatus is the verification state of a patient profile. The ledger owns
// the Pending → {Approved, Denied} transition; the gateway only reads it.
type KYCStatus string

const (
	KYCPending  KYCStatus = "Pending"
	KYCApproved KYCStatus = "Approved"
	KYCDenied   KYCStatus = "Denied"
	KYCUnknown  KYCStatus = "Unknown"
)

// ParseKYCStatus maps a wire value to the closed variant, defaulting to
// KYCUnknown for anything unrecognized.
func ParseKYCStatus(s string) KYCStatus {
	switch KYCStatus(s) {
	case KYCPending, KYCApproved, KYCDenied:
		return KYCStatus(s)
	}
	return KYCUnknown
}

// ActivationStatus is the operational state of a registered provider.
type ActivationStatus string

const (
	ProviderActive    ActivationStatus = "Active"
	ProviderSuspended ActivationStatus = "Suspended"
	ProviderUnknown   ActivationStatus = "Unknown"
)

func ParseActivationStatus(s string) ActivationStatus {
	switch ActivationStatus(s) {
	case ProviderActive, ProviderSuspended:
		return ActivationStatus(s)
	}
	return ProviderUnknown
}

// Patient is the registry profile as stored on the ledger.
type Patient struct {
	Name          string    `json:"name"`
	Gender        string    `json:"gender"`
	DateOfBirth   string    `json:"date_of_birth"`
	PlaceOfBirth  string    `json:"place_of_birth"`
	Address       string    `json:"address"`
	MaritalStatus string    `json:"marital_status"`
	KYCStatus     KYCStatus `json:"kyc_status"`
}

// PatientWithNIK carries the profile plus the hashed national identity
// number used as a lookup key in consent flows.
type PatientWithNIK struct {
	Patient
	NIKHash string `json:"nik_hash"`
}

// Provider is a registered hospital.
type Provider struct {
	InternalID       string           `json:"internal_id"`
	Principal        string           `json:"principal"`
	DisplayName      string           `json:"display_name"`
	Address          string           `json:"address"`
	RegisteredAt     time.Time        `json:"registered_at"`
	ActivationStatus ActivationStatus `json:"activation_status"`
}

// EMRFragment is one free-form key/value entry of a record body. Order is
// significant and preserved as received.
type EMRFragment struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EMRHeader is a medical record header plus its schemaless body.
type EMRHeader struct {
	EMRID        string        `json:"emr_id"`
	ProviderID   string        `json:"provider_id"`
	RegistryID   string        `json:"registry_id"`
	HospitalName string        `json:"hospital_name"`
	Body         []EMRFragment `json:"body"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SessionCode is a freshly minted consent code. ExpiresAt is stamped by the
// ledger; the gateway never invents a validity window of its own.
type SessionCode struct {
	SessionID string    `json:"session_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Consent is one entry of a patient's consent list.
type Consent struct {
	SessionID       string    `json:"session_id"`
	Code            string    `json:"code"`
	GrantedProvider string    `json:"granted_provider"`
	ProviderName    string    `json:"provider_name"`
	Claimed         bool      `json:"claimed"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// LogEntry is one line of the ledger's activity log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Principal string    `json:"principal"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
}
