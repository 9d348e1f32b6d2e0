package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ws"
)

// Service persists notifications and mirrors each new one to the
// principal's connected devices over the websocket hub.
type Service struct {
	repo   Repository
	hub    *ws.Hub
	logger zerolog.Logger
}

func NewService(repo Repository, hub *ws.Hub, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

// Notify stores a notification and pushes it live. The push is best effort;
// the stored row is what the inbox reads.
func (s *Service) Notify(ctx context.Context, principal, kind, title, body string) error {
	n := &Notification{Principal: principal, Kind: kind, Title: title, Body: body}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Publish(principal, "notification", n)
	}
	return nil
}

func (s *Service) List(ctx context.Context, principal string, limit int) ([]Notification, error) {
	return s.repo.ListByPrincipal(ctx, principal, limit)
}

func (s *Service) UnreadCount(ctx context.Context, principal string) (int, error) {
	return s.repo.UnreadCount(ctx, principal)
}

func (s *Service) MarkRead(ctx context.Context, principal, id string) error {
	return s.repo.MarkRead(ctx, principal, id)
}

func (s *Service) MarkAllRead(ctx context.Context, principal string) error {
	return s.repo.MarkAllRead(ctx, principal)
}
