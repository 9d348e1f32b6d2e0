package provider

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/pkg/statestore"
)

// Service fronts the provider registry. The dashboard's provider list is
// cached in a display store so name filtering runs locally.
type Service struct {
	actor  ledger.Actor
	store  *statestore.Store[ledger.Provider]
	logger zerolog.Logger
}

func NewService(actor ledger.Actor, logger zerolog.Logger) *Service {
	return &Service{
		actor:  actor,
		store:  statestore.New(func(p ledger.Provider) string { return p.DisplayName }),
		logger: logger.With().Str("component", "provider").Logger(),
	}
}

// Register enrolls a hospital. Admin only; the ledger enforces that the
// calling principal is bound as an admin.
func (s *Service) Register(ctx context.Context, adminPrincipal string, req RegisterRequest) (*ledger.Provider, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.actor.RegisterNewProvider(ctx, adminPrincipal, req.Principal, req.DisplayName, req.Address)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("provider_id", p.InternalID).Str("name", p.DisplayName).Msg("provider registered")
	return p, nil
}

// Batch resolves provider ids to registry entries. The fetched set refreshes
// the display cache.
func (s *Service) Batch(ctx context.Context, ids []string) ([]ledger.Provider, error) {
	providers, err := s.actor.GetProviderBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.store.Set(providers)
	return providers, nil
}

// Filter narrows the cached provider list by display name. Local only.
func (s *Service) Filter(term string) []ledger.Provider {
	return s.store.Search(term)
}

// ByPrincipal looks up the registry entry for a provider principal, used by
// provider consoles to resolve their own identity.
func (s *Service) ByPrincipal(ctx context.Context, principal string) (*ledger.Provider, error) {
	return s.actor.GetProviderInfoWithPrincipal(ctx, principal)
}

// Suspend deactivates a provider. Suspended providers can no longer claim
// consent codes.
func (s *Service) Suspend(ctx context.Context, adminPrincipal, providerID string) error {
	if err := s.actor.SuspendProvider(ctx, adminPrincipal, providerID); err != nil {
		return err
	}
	s.logger.Info().Str("provider_id", providerID).Msg("provider suspended")
	return nil
}

// Unsuspend reactivates a suspended provider.
func (s *Service) Unsuspend(ctx context.Context, adminPrincipal, providerID string) error {
	if err := s.actor.UnsuspendProvider(ctx, adminPrincipal, providerID); err != nil {
		return err
	}
	s.logger.Info().Str("provider_id", providerID).Msg("provider unsuspended")
	return nil
}
