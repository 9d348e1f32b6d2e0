package patient

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/medrec/gateway/internal/platform/ledger"
)

// RegisterRequest is the registration form forwarded to the patient
// registry. NIK is hashed before it leaves the gateway; the plaintext number
// is only passed to the KYC collaborator.
type RegisterRequest struct {
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth"`
	PlaceOfBirth  string `json:"place_of_birth"`
	Address       string `json:"address"`
	MaritalStatus string `json:"marital_status"`
	NIK           string `json:"nik"`
}

var validGenders = map[string]bool{
	"male": true, "female": true,
}

var validMaritalStatuses = map[string]bool{
	"single": true, "married": true, "divorced": true, "widowed": true,
}

// Validate checks the registration form before any network call, so invalid
// submissions never reach the ledger.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !validGenders[r.Gender] {
		return fmt.Errorf("invalid gender: %s", r.Gender)
	}
	if _, err := time.Parse("2006-01-02", r.DateOfBirth); err != nil {
		return fmt.Errorf("date_of_birth must be YYYY-MM-DD: %w", err)
	}
	if r.MaritalStatus != "" && !validMaritalStatuses[r.MaritalStatus] {
		return fmt.Errorf("invalid marital_status: %s", r.MaritalStatus)
	}
	if len(r.NIK) != 16 {
		return fmt.Errorf("nik must be 16 digits")
	}
	for _, ch := range r.NIK {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("nik must be numeric")
		}
	}
	return nil
}

// HashNIK derives the lookup key used in consent flows from a plaintext NIK.
func HashNIK(nik string) string {
	sum := sha256.Sum256([]byte(nik))
	return hex.EncodeToString(sum[:])
}

// ProfileResponse is the profile as served to clients.
type ProfileResponse struct {
	Name          string           `json:"name"`
	Gender        string           `json:"gender"`
	DateOfBirth   string           `json:"date_of_birth"`
	PlaceOfBirth  string           `json:"place_of_birth"`
	Address       string           `json:"address"`
	MaritalStatus string           `json:"marital_status"`
	KYCStatus     ledger.KYCStatus `json:"kyc_status"`
}

func toProfileResponse(p *ledger.PatientWithNIK) *ProfileResponse {
	return &ProfileResponse{
		Name:          p.Name,
		Gender:        p.Gender,
		DateOfBirth:   p.DateOfBirth,
		PlaceOfBirth:  p.PlaceOfBirth,
		Address:       p.Address,
		MaritalStatus: p.MaritalStatus,
		KYCStatus:     p.KYCStatus,
	}
}
