package main

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/domain/consent"
	"github.com/medrec/gateway/internal/domain/notification"
	"github.com/medrec/gateway/internal/platform/ws"
)

type memNotifRepo struct {
	mu    sync.Mutex
	items []notification.Notification
}

func (m *memNotifRepo) Create(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifRepo) ListByPrincipal(ctx context.Context, principal string, limit int) ([]notification.Notification, error) {
	return nil, nil
}

func (m *memNotifRepo) UnreadCount(ctx context.Context, principal string) (int, error) {
	return 0, nil
}

func (m *memNotifRepo) MarkRead(ctx context.Context, principal, id string) error { return nil }

func (m *memNotifRepo) MarkAllRead(ctx context.Context, principal string) error { return nil }

// Startup must refuse an unsafe configuration instead of running degraded:
// delegation mode with no identity-provider settings cannot verify anyone.
func TestLoadConfigRefusesUnsafeConfiguration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gateway")
	t.Setenv("LEDGER_URL", "http://localhost:4943")
	t.Setenv("ENV", "production")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected delegation mode without AUTH_ISSUER/AUTH_JWKS_URL to be rejected")
	}

	t.Setenv("AUTH_JWKS_URL", "https://idp.example.com/.well-known/jwks.json")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected configured delegation mode to load, got %v", err)
	}
	if cfg.ResolvedAuthMode() != "delegation" {
		t.Errorf("expected delegation mode in production, got %q", cfg.ResolvedAuthMode())
	}
}

func TestConsentNotifierFansOut(t *testing.T) {
	hub := ws.NewHub(zerolog.Nop())
	client := &ws.Client{ID: "c1", Principal: "provider-1", Send: make(chan []byte, 4)}
	hub.Register(client)

	repo := &memNotifRepo{}
	notifSvc := notification.NewService(repo, hub, zerolog.Nop())
	n := &consentNotifier{hub: hub, notif: notifSvc, logger: zerolog.Nop()}

	n.Publish("provider-1", consent.Event{
		Type:      consent.EventRevoked,
		SessionID: "sess-1",
		At:        time.Now(),
	})

	// One frame for the event itself, one for the inbox notification.
	if len(client.Send) != 2 {
		t.Fatalf("expected 2 pushed frames, got %d", len(client.Send))
	}
	var env ws.Envelope
	if err := json.Unmarshal(<-client.Send, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Kind != consent.EventRevoked {
		t.Fatalf("unexpected kind %q", env.Kind)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.items) != 1 || repo.items[0].Kind != notification.KindConsentRevoked {
		t.Fatalf("inbox row not written: %+v", repo.items)
	}
}
