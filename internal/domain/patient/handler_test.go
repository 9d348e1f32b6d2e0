package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/kyc"
	"github.com/medrec/gateway/internal/platform/ledger"
)

type fakeVerifier struct {
	submit func(ctx context.Context, s kyc.Submission) error
	status func(ctx context.Context, nik string) (*kyc.StatusReply, error)
}

func (f *fakeVerifier) Submit(ctx context.Context, s kyc.Submission) error {
	return f.submit(ctx, s)
}

func (f *fakeVerifier) Status(ctx context.Context, nik string) (*kyc.StatusReply, error) {
	return f.status(ctx, nik)
}

func newTestContext(t *testing.T, method, target, body, principal string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if principal != "" {
		ctx := context.WithValue(req.Context(), identity.PrincipalKey, principal)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetProfileAnonymous(t *testing.T) {
	h := NewHandler(NewService(&fakeActor{}, zerolog.Nop()), &fakeVerifier{})
	c, _ := newTestContext(t, http.MethodGet, "/patients/me", "", "")

	err := h.GetProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestGetProfileOK(t *testing.T) {
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			if principal != "aaaa-bbbb" {
				t.Fatalf("unexpected principal %q", principal)
			}
			return approvedProfile("Budi"), nil
		},
	}
	h := NewHandler(NewService(actor, zerolog.Nop()), &fakeVerifier{})
	c, rec := newTestContext(t, http.MethodGet, "/patients/me", "", "aaaa-bbbb")

	if err := h.GetProfile(c); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "Budi" || resp.KYCStatus != ledger.KYCApproved {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestGetProfileNotRegistered(t *testing.T) {
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			return nil, &ledger.Error{Tag: ledger.TagNotFound, Method: "get_patient_info"}
		},
	}
	h := NewHandler(NewService(actor, zerolog.Nop()), &fakeVerifier{})
	c, _ := newTestContext(t, http.MethodGet, "/patients/me", "", "aaaa-bbbb")

	err := h.GetProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestRegisterCreated(t *testing.T) {
	actor := &fakeActor{
		registerPatient: func(ctx context.Context, principal string, p ledger.Patient, nikHash string) error {
			return nil
		},
	}
	h := NewHandler(NewService(actor, zerolog.Nop()), &fakeVerifier{})
	body := `{"name":"Budi Santoso","gender":"male","date_of_birth":"1990-02-11","nik":"3201011234560001"}`
	c, rec := newTestContext(t, http.MethodPost, "/patients", body, "aaaa-bbbb")

	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRegisterInvalidBody(t *testing.T) {
	h := NewHandler(NewService(&fakeActor{}, zerolog.Nop()), &fakeVerifier{})
	body := `{"name":"","gender":"male","date_of_birth":"1990-02-11","nik":"3201011234560001"}`
	c, _ := newTestContext(t, http.MethodPost, "/patients", body, "aaaa-bbbb")

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func newMultipartContext(t *testing.T, principal string, fields map[string]string, withCard bool) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if withCard {
		fw, err := w.CreateFormFile("card", "ktp.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, "fake-image-bytes"); err != nil {
			t.Fatalf("write card: %v", err)
		}
	}
	w.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/patients/kyc", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if principal != "" {
		req = req.WithContext(context.WithValue(req.Context(), identity.PrincipalKey, principal))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSubmitKYCForwardsHashedNIK(t *testing.T) {
	var got kyc.Submission
	verifier := &fakeVerifier{
		submit: func(ctx context.Context, s kyc.Submission) error {
			got = s
			return nil
		},
	}
	h := NewHandler(NewService(&fakeActor{}, zerolog.Nop()), verifier)
	c, rec := newMultipartContext(t, "aaaa-bbbb", map[string]string{
		"nik":       "3201011234560001",
		"full_name": "Budi Santoso",
		"gender":    "male",
	}, true)

	if err := h.SubmitKYC(c); err != nil {
		t.Fatalf("SubmitKYC: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if got.NIKHash != HashNIK("3201011234560001") {
		t.Fatalf("nik hash not derived: %q", got.NIKHash)
	}
	if got.NIK != "3201011234560001" || got.FullName != "Budi Santoso" {
		t.Fatalf("fields not forwarded: %+v", got)
	}
}

func TestSubmitKYCRequiresCard(t *testing.T) {
	h := NewHandler(NewService(&fakeActor{}, zerolog.Nop()), &fakeVerifier{})
	c, _ := newMultipartContext(t, "aaaa-bbbb", map[string]string{
		"nik": "3201011234560001",
	}, false)

	err := h.SubmitKYC(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without card, got %v", err)
	}
}

func TestKYCStatusPoll(t *testing.T) {
	verifier := &fakeVerifier{
		status: func(ctx context.Context, nik string) (*kyc.StatusReply, error) {
			return &kyc.StatusReply{NIK: nik, Status: "verified"}, nil
		},
	}
	h := NewHandler(NewService(&fakeActor{}, zerolog.Nop()), verifier)
	c, rec := newTestContext(t, http.MethodGet, "/patients/kyc/status?nik=3201011234560001", "", "aaaa-bbbb")

	if err := h.KYCStatus(c); err != nil {
		t.Fatalf("KYCStatus: %v", err)
	}
	var reply kyc.StatusReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Status != "verified" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}
