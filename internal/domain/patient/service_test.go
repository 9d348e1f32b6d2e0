package patient

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ledger"
)

type fakeActor struct {
	ledger.Actor

	getPatientInfo  func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error)
	registerPatient func(ctx context.Context, principal string, p ledger.Patient, nikHash string) error
}

func (f *fakeActor) GetPatientInfo(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
	return f.getPatientInfo(ctx, principal)
}

func (f *fakeActor) RegisterPatient(ctx context.Context, principal string, p ledger.Patient, nikHash string) error {
	return f.registerPatient(ctx, principal, p, nikHash)
}

func approvedProfile(name string) *ledger.PatientWithNIK {
	return &ledger.PatientWithNIK{
		Patient: ledger.Patient{Name: name, KYCStatus: ledger.KYCApproved},
		NIKHash: HashNIK("3201011234560001"),
	}
}

func TestProfileCachesWithinTTL(t *testing.T) {
	calls := 0
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			calls++
			return approvedProfile("Budi"), nil
		},
	}
	svc := NewService(actor, zerolog.Nop())

	for i := 0; i < 3; i++ {
		p, err := svc.Profile(context.Background(), "aaaa-bbbb")
		if err != nil {
			t.Fatalf("Profile: %v", err)
		}
		if p.Name != "Budi" {
			t.Fatalf("got name %q", p.Name)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 registry call, got %d", calls)
	}
}

func TestProfileServesLastKnownGoodOnOutage(t *testing.T) {
	healthy := true
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			if !healthy {
				return nil, &ledger.Error{Tag: ledger.TagUnavailable, Method: "get_patient_info", Message: "timeout"}
			}
			return approvedProfile("Budi"), nil
		},
	}
	svc := NewService(actor, zerolog.Nop())
	svc.ttl = 0 // force a registry read on every call

	if _, err := svc.Profile(context.Background(), "aaaa-bbbb"); err != nil {
		t.Fatalf("warm-up Profile: %v", err)
	}

	healthy = false
	p, err := svc.Profile(context.Background(), "aaaa-bbbb")
	if err != nil {
		t.Fatalf("expected cached profile during outage, got %v", err)
	}
	if p.Name != "Budi" {
		t.Fatalf("got name %q", p.Name)
	}
}

func TestProfileOutageWithoutCacheFails(t *testing.T) {
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			return nil, &ledger.Error{Tag: ledger.TagUnavailable, Method: "get_patient_info", Message: "timeout"}
		},
	}
	svc := NewService(actor, zerolog.Nop())

	if _, err := svc.Profile(context.Background(), "aaaa-bbbb"); !ledger.IsUnavailable(err) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestProfileStructuralErrorDropsCache(t *testing.T) {
	known := true
	actor := &fakeActor{
		getPatientInfo: func(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
			if !known {
				return nil, &ledger.Error{Tag: ledger.TagNotFound, Method: "get_patient_info", Message: "no profile"}
			}
			return approvedProfile("Budi"), nil
		},
	}
	svc := NewService(actor, zerolog.Nop())
	svc.ttl = 0

	if _, err := svc.Profile(context.Background(), "aaaa-bbbb"); err != nil {
		t.Fatalf("warm-up Profile: %v", err)
	}

	known = false
	if _, err := svc.Profile(context.Background(), "aaaa-bbbb"); !ledger.IsNotFound(err) {
		t.Fatalf("expected NotFound to propagate, got %v", err)
	}
	svc.mu.RLock()
	_, cached := svc.cached["aaaa-bbbb"]
	svc.mu.RUnlock()
	if cached {
		t.Fatal("cache entry should be dropped after structural failure")
	}
}

func TestRegisterHashesNIKAndInvalidates(t *testing.T) {
	var gotHash string
	actor := &fakeActor{
		registerPatient: func(ctx context.Context, principal string, p ledger.Patient, nikHash string) error {
			gotHash = nikHash
			return nil
		},
	}
	svc := NewService(actor, zerolog.Nop())
	svc.cached["aaaa-bbbb"] = cachedProfile{profile: approvedProfile("stale")}

	req := RegisterRequest{
		Name:        "Budi Santoso",
		Gender:      "male",
		DateOfBirth: "1990-02-11",
		NIK:         "3201011234560001",
	}
	if err := svc.Register(context.Background(), "aaaa-bbbb", req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if gotHash != HashNIK("3201011234560001") {
		t.Fatalf("expected sha256 hash of nik, got %q", gotHash)
	}
	if gotHash == "3201011234560001" {
		t.Fatal("plaintext nik must not reach the ledger")
	}
	if _, ok := svc.cached["aaaa-bbbb"]; ok {
		t.Fatal("cache must be invalidated after registration")
	}
}

func TestRegisterRejectsInvalidForm(t *testing.T) {
	svc := NewService(&fakeActor{}, zerolog.Nop())

	bad := []RegisterRequest{
		{Gender: "male", DateOfBirth: "1990-02-11", NIK: "3201011234560001"},                       // no name
		{Name: "Budi", Gender: "other", DateOfBirth: "1990-02-11", NIK: "3201011234560001"},       // bad gender
		{Name: "Budi", Gender: "male", DateOfBirth: "11-02-1990", NIK: "3201011234560001"},        // bad date
		{Name: "Budi", Gender: "male", DateOfBirth: "1990-02-11", NIK: "12345"},                   // short nik
		{Name: "Budi", Gender: "male", DateOfBirth: "1990-02-11", NIK: "32010112345600ab"},        // non-numeric nik
		{Name: "B", Gender: "female", DateOfBirth: "1990-02-11", MaritalStatus: "x", NIK: "3201011234560001"}, // bad marital
	}
	for i, req := range bad {
		if err := svc.Register(context.Background(), "aaaa-bbbb", req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
