package adminops

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/kyc"
	"github.com/medrec/gateway/internal/platform/ledger"
)

// Reviewer is the slice of the verification service the admin console
// needs. *kyc.Client satisfies it.
type Reviewer interface {
	Get(ctx context.Context, user string) (*kyc.Record, error)
	Review(ctx context.Context, user string, d kyc.Decision) error
}

// Service backs the operations dashboard: admin binding, the ledger
// activity log, and the verification review queue.
type Service struct {
	actor    ledger.Actor
	reviewer Reviewer
	logger   zerolog.Logger
}

func NewService(actor ledger.Actor, reviewer Reviewer, logger zerolog.Logger) *Service {
	return &Service{
		actor:    actor,
		reviewer: reviewer,
		logger:   logger.With().Str("component", "adminops").Logger(),
	}
}

// BindAdmin grants admin rights to a principal. The ledger only honors the
// call from an already-bound admin (or from the controller on first bind).
func (s *Service) BindAdmin(ctx context.Context, callerPrincipal, newAdminPrincipal string) error {
	if newAdminPrincipal == "" {
		return fmt.Errorf("principal is required")
	}
	if err := s.actor.BindAdmin(ctx, callerPrincipal, newAdminPrincipal); err != nil {
		return err
	}
	s.logger.Info().Str("admin", newAdminPrincipal).Msg("admin bound")
	return nil
}

// Logs pages through the ledger activity log.
func (s *Service) Logs(ctx context.Context, adminPrincipal string, page, limit int) ([]ledger.LogEntry, int, error) {
	return s.actor.GetLogs(ctx, adminPrincipal, page, limit)
}

// Application fetches one verification application for review.
func (s *Service) Application(ctx context.Context, user string) (*kyc.Record, error) {
	return s.reviewer.Get(ctx, user)
}

// Review records a verdict on a verification application. The ledger's
// kyc_status follows the verification service's webhook, not this call.
func (s *Service) Review(ctx context.Context, adminPrincipal, user string, verified bool, message string) error {
	if err := s.reviewer.Review(ctx, user, kyc.Decision{Verified: verified, Message: message}); err != nil {
		return err
	}
	s.logger.Info().
		Str("admin", adminPrincipal).
		Str("user", user).
		Bool("verified", verified).
		Msg("verification reviewed")
	return nil
}
