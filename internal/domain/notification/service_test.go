package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ws"
)

type memRepo struct {
	mu    sync.Mutex
	items []Notification
}

func (m *memRepo) Create(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = "n-1"
	n.CreatedAt = time.Now()
	m.items = append(m.items, *n)
	return nil
}

func (m *memRepo) ListByPrincipal(ctx context.Context, principal string, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.items {
		if n.Principal == principal {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) UnreadCount(ctx context.Context, principal string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.Principal == principal && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) MarkRead(ctx context.Context, principal, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := range m.items {
		if m.items[i].Principal == principal && m.items[i].ID == id {
			m.items[i].ReadAt = &now
		}
	}
	return nil
}

func (m *memRepo) MarkAllRead(ctx context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := range m.items {
		if m.items[i].Principal == principal {
			m.items[i].ReadAt = &now
		}
	}
	return nil
}

func TestNotifyStoresAndPushes(t *testing.T) {
	repo := &memRepo{}
	hub := ws.NewHub(zerolog.Nop())
	client := &ws.Client{ID: "c1", Principal: "patient-1", Send: make(chan []byte, 1)}
	hub.Register(client)

	svc := NewService(repo, hub, zerolog.Nop())
	if err := svc.Notify(context.Background(), "patient-1", KindConsentClaimed, "Consent claimed", "RSUP Sanglah claimed your code"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	items, err := svc.List(context.Background(), "patient-1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Kind != KindConsentClaimed {
		t.Fatalf("unexpected inbox %+v", items)
	}
	if len(client.Send) != 1 {
		t.Fatal("notification not pushed over the hub")
	}
}

func TestUnreadLifecycle(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Notify(ctx, "patient-1", KindConsentRevoked, "Consent revoked", ""); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	count, err := svc.UnreadCount(ctx, "patient-1")
	if err != nil || count != 1 {
		t.Fatalf("expected 1 unread, got %d (%v)", count, err)
	}

	if err := svc.MarkRead(ctx, "patient-1", "n-1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, "patient-1")
	if count != 0 {
		t.Fatalf("expected 0 unread after mark, got %d", count)
	}
}
