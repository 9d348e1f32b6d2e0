package adminops

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/kyc"
	"github.com/medrec/gateway/internal/platform/ledger"
)

type fakeActor struct {
	ledger.Actor

	bindAdmin func(ctx context.Context, caller, newAdmin string) error
	getLogs   func(ctx context.Context, admin string, page, limit int) ([]ledger.LogEntry, int, error)
}

func (f *fakeActor) BindAdmin(ctx context.Context, caller, newAdmin string) error {
	return f.bindAdmin(ctx, caller, newAdmin)
}

func (f *fakeActor) GetLogs(ctx context.Context, admin string, page, limit int) ([]ledger.LogEntry, int, error) {
	return f.getLogs(ctx, admin, page, limit)
}

type fakeReviewer struct {
	get    func(ctx context.Context, user string) (*kyc.Record, error)
	review func(ctx context.Context, user string, d kyc.Decision) error
}

func (f *fakeReviewer) Get(ctx context.Context, user string) (*kyc.Record, error) {
	return f.get(ctx, user)
}

func (f *fakeReviewer) Review(ctx context.Context, user string, d kyc.Decision) error {
	return f.review(ctx, user, d)
}

func TestBindAdminRequiresPrincipal(t *testing.T) {
	called := false
	actor := &fakeActor{
		bindAdmin: func(ctx context.Context, caller, newAdmin string) error {
			called = true
			return nil
		},
	}
	svc := NewService(actor, &fakeReviewer{}, zerolog.Nop())

	if err := svc.BindAdmin(context.Background(), "admin-1", ""); err == nil {
		t.Fatal("expected error for empty principal")
	}
	if called {
		t.Fatal("empty principal must not reach the ledger")
	}
	if err := svc.BindAdmin(context.Background(), "admin-1", "new-admin"); err != nil {
		t.Fatalf("BindAdmin: %v", err)
	}
}

func TestBindAdminUnauthorized(t *testing.T) {
	actor := &fakeActor{
		bindAdmin: func(ctx context.Context, caller, newAdmin string) error {
			return &ledger.Error{Tag: ledger.TagUnauthorized, Method: "bind_admin"}
		},
	}
	svc := NewService(actor, &fakeReviewer{}, zerolog.Nop())

	if err := svc.BindAdmin(context.Background(), "nobody", "new-admin"); !ledger.IsUnauthorized(err) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestLogsPassesPagination(t *testing.T) {
	actor := &fakeActor{
		getLogs: func(ctx context.Context, admin string, page, limit int) ([]ledger.LogEntry, int, error) {
			if page != 2 || limit != 10 {
				t.Fatalf("pagination not forwarded: page=%d limit=%d", page, limit)
			}
			return []ledger.LogEntry{{Action: "claim_consent", Timestamp: time.Now()}}, 11, nil
		},
	}
	svc := NewService(actor, &fakeReviewer{}, zerolog.Nop())

	entries, total, err := svc.Logs(context.Background(), "admin-1", 2, 10)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(entries) != 1 || total != 11 {
		t.Fatalf("got %d entries, total %d", len(entries), total)
	}
}

func TestReviewForwardsDecision(t *testing.T) {
	var got kyc.Decision
	reviewer := &fakeReviewer{
		review: func(ctx context.Context, user string, d kyc.Decision) error {
			if user != "user-1" {
				t.Fatalf("unexpected user %q", user)
			}
			got = d
			return nil
		},
	}
	svc := NewService(&fakeActor{}, reviewer, zerolog.Nop())

	if err := svc.Review(context.Background(), "admin-1", "user-1", true, "documents match"); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if !got.Verified || got.Message != "documents match" {
		t.Fatalf("decision not forwarded: %+v", got)
	}
}
