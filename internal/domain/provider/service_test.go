package provider

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ledger"
)

type fakeActor struct {
	ledger.Actor

	registerNewProvider          func(ctx context.Context, adminPrincipal, providerPrincipal, displayName, address string) (*ledger.Provider, error)
	getProviderBatch             func(ctx context.Context, ids []string) ([]ledger.Provider, error)
	getProviderInfoWithPrincipal func(ctx context.Context, principal string) (*ledger.Provider, error)
	suspendProvider              func(ctx context.Context, adminPrincipal, providerID string) error
}

func (f *fakeActor) RegisterNewProvider(ctx context.Context, adminPrincipal, providerPrincipal, displayName, address string) (*ledger.Provider, error) {
	return f.registerNewProvider(ctx, adminPrincipal, providerPrincipal, displayName, address)
}

func (f *fakeActor) GetProviderBatch(ctx context.Context, ids []string) ([]ledger.Provider, error) {
	return f.getProviderBatch(ctx, ids)
}

func (f *fakeActor) GetProviderInfoWithPrincipal(ctx context.Context, principal string) (*ledger.Provider, error) {
	return f.getProviderInfoWithPrincipal(ctx, principal)
}

func (f *fakeActor) SuspendProvider(ctx context.Context, adminPrincipal, providerID string) error {
	return f.suspendProvider(ctx, adminPrincipal, providerID)
}

func TestRegisterValidatesBeforeLedger(t *testing.T) {
	called := false
	actor := &fakeActor{
		registerNewProvider: func(ctx context.Context, admin, principal, name, address string) (*ledger.Provider, error) {
			called = true
			return &ledger.Provider{InternalID: "prov-1", DisplayName: name}, nil
		},
	}
	svc := NewService(actor, zerolog.Nop())

	if _, err := svc.Register(context.Background(), "admin-1", RegisterRequest{Principal: "p-1"}); err == nil {
		t.Fatal("expected validation error for missing display_name")
	}
	if called {
		t.Fatal("invalid request must not reach the ledger")
	}

	p, err := svc.Register(context.Background(), "admin-1", RegisterRequest{
		Principal:   "p-1",
		DisplayName: "RSUP Sanglah",
		Address:     "Denpasar",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.InternalID != "prov-1" {
		t.Fatalf("unexpected provider %+v", p)
	}
}

func TestRegisterUnauthorizedAdmin(t *testing.T) {
	actor := &fakeActor{
		registerNewProvider: func(ctx context.Context, admin, principal, name, address string) (*ledger.Provider, error) {
			return nil, &ledger.Error{Tag: ledger.TagUnauthorized, Method: "register_new_provider"}
		},
	}
	svc := NewService(actor, zerolog.Nop())

	_, err := svc.Register(context.Background(), "not-admin", RegisterRequest{
		Principal: "p-1", DisplayName: "RSUP Sanglah", Address: "Denpasar",
	})
	if !ledger.IsUnauthorized(err) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestBatchRefreshesFilterCache(t *testing.T) {
	actor := &fakeActor{
		getProviderBatch: func(ctx context.Context, ids []string) ([]ledger.Provider, error) {
			return []ledger.Provider{
				{InternalID: "prov-1", DisplayName: "RSUP Sanglah", ActivationStatus: ledger.ProviderActive},
				{InternalID: "prov-2", DisplayName: "RS Siloam", ActivationStatus: ledger.ProviderSuspended},
			}, nil
		},
	}
	svc := NewService(actor, zerolog.Nop())

	providers, err := svc.Batch(context.Background(), []string{"prov-1", "prov-2"})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("got %d providers", len(providers))
	}

	if got := svc.Filter("sanglah"); len(got) != 1 || got[0].InternalID != "prov-1" {
		t.Fatalf("filter failed: %+v", got)
	}
	if got := svc.Filter(""); len(got) != 2 {
		t.Fatalf("empty term must restore full list, got %d", len(got))
	}
}

func TestByPrincipalNotRegistered(t *testing.T) {
	actor := &fakeActor{
		getProviderInfoWithPrincipal: func(ctx context.Context, principal string) (*ledger.Provider, error) {
			return nil, &ledger.Error{Tag: ledger.TagNotFound, Method: "get_provider_info_with_principal"}
		},
	}
	svc := NewService(actor, zerolog.Nop())

	if _, err := svc.ByPrincipal(context.Background(), "p-1"); !ledger.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSuspendPropagatesError(t *testing.T) {
	actor := &fakeActor{
		suspendProvider: func(ctx context.Context, admin, id string) error {
			return &ledger.Error{Tag: ledger.TagUnavailable, Method: "suspend_provider"}
		},
	}
	svc := NewService(actor, zerolog.Nop())

	if err := svc.Suspend(context.Background(), "admin-1", "prov-1"); !ledger.IsUnavailable(err) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}
