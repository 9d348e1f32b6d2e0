package kyc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestClient_Submit_MultipartFields(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	var gotCard string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		if f, _, err := r.FormFile("card"); err == nil {
			b := make([]byte, 16)
			n, _ := f.Read(b)
			gotCard = string(b[:n])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, AuthBearer, "secret-token", "", zerolog.Nop())
	err := c.Submit(context.Background(), Submission{
		NIKHash:    "hash",
		FullName:   "Budi",
		NIK:        "3501010101010001",
		Address:    "Denpasar",
		Gender:     "male",
		PlaceBirth: "Denpasar",
		DateBirth:  "1990-01-01",
		Marital:    "single",
		CardName:   "ktp.jpg",
		Card:       strings.NewReader("JPEGDATA"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotFields["nikHash"] != "hash" || gotFields["fullName"] != "Budi" || gotFields["marital"] != "single" {
		t.Errorf("unexpected form fields: %v", gotFields)
	}
	if gotCard != "JPEGDATA" {
		t.Errorf("expected card file content, got %q", gotCard)
	}
}

func TestClient_APIKeyMode(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		json.NewEncoder(w).Encode(StatusReply{NIK: "nik", Status: "pending"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, AuthAPIKey, "", "pwa-key", zerolog.Nop())
	st, err := c.Status(context.Background(), "nik")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "pwa-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if st.Status != "pending" {
		t.Errorf("expected pending, got %s", st.Status)
	}
}

func TestClient_Review(t *testing.T) {
	var gotMethod, gotPath string
	var gotDecision Decision
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotDecision)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, AuthBearer, "t", "", zerolog.Nop())
	err := c.Review(context.Background(), "user-1", Decision{Verified: false, Message: "blurred card photo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/kyc/user-1" {
		t.Errorf("expected PUT /kyc/user-1, got %s %s", gotMethod, gotPath)
	}
	if gotDecision.Verified || gotDecision.Message != "blurred card photo" {
		t.Errorf("unexpected decision payload: %+v", gotDecision)
	}
}

func TestClient_Get_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, AuthBearer, "t", "", zerolog.Nop())
	if _, err := c.Get(context.Background(), "nobody"); err == nil {
		t.Error("expected error for 404 response")
	}
}
