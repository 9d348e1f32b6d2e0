package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop()), srv
}

func TestClient_GetPatientInfo_OK(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query/get_patient_info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var env map[string]interface{}
		json.NewDecoder(r.Body).Decode(&env)
		if env["sender"] != "patient-principal" {
			t.Errorf("expected sender patient-principal, got %v", env["sender"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": map[string]interface{}{
				"name":       "Budi Santoso",
				"gender":     "male",
				"kyc_status": "Approved",
				"nik_hash":   "abc123",
			},
		})
	})

	p, err := client.GetPatientInfo(context.Background(), "patient-principal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Budi Santoso" {
		t.Errorf("expected name Budi Santoso, got %s", p.Name)
	}
	if p.KYCStatus != KYCApproved {
		t.Errorf("expected Approved, got %s", p.KYCStatus)
	}
	if p.NIKHash != "abc123" {
		t.Errorf("expected nik hash abc123, got %s", p.NIKHash)
	}
}

func TestClient_TaggedError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"err": map[string]string{"tag": "NotFound", "message": "patient does not exist"},
		})
	})

	_, err := client.GetPatientInfo(context.Background(), "unknown")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected NotFound tag, got %v", TagOf(err))
	}

	var le *Error
	if !errors.As(err, &le) {
		t.Fatal("expected *ledger.Error")
	}
	if le.Method != "get_patient_info" {
		t.Errorf("expected method get_patient_info, got %s", le.Method)
	}
}

func TestClient_UnknownTagFallsBackToInternal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"err": map[string]string{"tag": "SomethingNew", "message": "??"},
		})
	})

	_, err := client.GetPatientInfo(context.Background(), "p")
	if TagOf(err) != TagInternal {
		t.Errorf("expected Internal for unknown tag, got %v", TagOf(err))
	}
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetPatientInfo(context.Background(), "p")
	if !IsUnavailable(err) {
		t.Errorf("expected Unavailable for 5xx, got %v", TagOf(err))
	}
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second, zerolog.Nop())
	_, err := client.GetPatientInfo(context.Background(), "p")
	if !IsUnavailable(err) {
		t.Errorf("expected Unavailable for transport failure, got %v", TagOf(err))
	}
}

func TestClient_RevokeConsent_SendsCodes(t *testing.T) {
	var got []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/update/revoke_consent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var env struct {
			Sender string `json:"sender"`
			Arg    struct {
				Codes []string `json:"codes"`
			} `json:"arg"`
		}
		json.NewDecoder(r.Body).Decode(&env)
		got = env.Arg.Codes
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": map[string]interface{}{}})
	})

	if err := client.RevokeConsent(context.Background(), "p", []string{"A", "B"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("expected codes [A B], got %v", got)
	}
}

func TestClient_EMRListWithSession_Paged(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": map[string]interface{}{
				"items": []map[string]interface{}{
					{"emr_id": "e1", "hospital_name": "RSUP Sanglah", "body": []map[string]string{{"key": "blood_pressure", "value": "120/80"}}},
				},
				"total": 12,
			},
		})
	})

	items, total, err := client.EMRListWithSession(context.Background(), "sess-1", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Errorf("expected total 12, got %d", total)
	}
	if len(items) != 1 || items[0].EMRID != "e1" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Body[0].Key != "blood_pressure" {
		t.Errorf("expected body fragment preserved, got %+v", items[0].Body)
	}
}

func TestParseKYCStatus(t *testing.T) {
	tests := []struct {
		in   string
		want KYCStatus
	}{
		{"Pending", KYCPending},
		{"Approved", KYCApproved},
		{"Denied", KYCDenied},
		{"", KYCUnknown},
		{"garbage", KYCUnknown},
	}
	for _, tt := range tests {
		if got := ParseKYCStatus(tt.in); got != tt.want {
			t.Errorf("ParseKYCStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseActivationStatus(t *testing.T) {
	if ParseActivationStatus("Active") != ProviderActive {
		t.Error("expected Active")
	}
	if ParseActivationStatus("nonsense") != ProviderUnknown {
		t.Error("expected Unknown default")
	}
}
