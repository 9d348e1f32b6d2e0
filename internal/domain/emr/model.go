package emr

import (
	"time"

	"github.com/medrec/gateway/internal/platform/ledger"
)

// displayLabels maps the well-known record body keys to their display
// labels. The body is schemaless; anything outside this map passes through
// with its raw key so new hospital fields render without a gateway release.
var displayLabels = map[string]string{
	"visit_date":   "Visit Date",
	"visit_type":   "Visit Type",
	"diagnosis":    "Diagnosis",
	"treatment":    "Treatment",
	"medication":   "Medication",
	"doctor_name":  "Doctor",
	"amount_paid":  "Amount Paid",
	"blood_type":   "Blood Type",
	"allergies":    "Allergies",
	"vital_signs":  "Vital Signs",
	"lab_results":  "Lab Results",
	"notes":        "Notes",
	"follow_up":    "Follow Up",
	"referral":     "Referral",
	"ward":         "Ward",
	"discharge_at": "Discharged At",
}

// Field is one rendered body entry. Label falls back to the raw key for
// unrecognized entries; order follows the record body as received.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is a medical record as served to clients.
type Record struct {
	EMRID        string    `json:"emr_id"`
	ProviderID   string    `json:"provider_id"`
	RegistryID   string    `json:"registry_id"`
	HospitalName string    `json:"hospital_name"`
	Fields       []Field   `json:"fields"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRecord(h ledger.EMRHeader) Record {
	fields := make([]Field, 0, len(h.Body))
	for _, frag := range h.Body {
		label, ok := displayLabels[frag.Key]
		if !ok {
			label = frag.Key
		}
		fields = append(fields, Field{Key: frag.Key, Label: label, Value: frag.Value})
	}
	return Record{
		EMRID:        h.EMRID,
		ProviderID:   h.ProviderID,
		RegistryID:   h.RegistryID,
		HospitalName: h.HospitalName,
		Fields:       fields,
		UpdatedAt:    h.UpdatedAt,
	}
}

func toRecords(headers []ledger.EMRHeader) []Record {
	out := make([]Record, 0, len(headers))
	for _, h := range headers {
		out = append(out, toRecord(h))
	}
	return out
}
