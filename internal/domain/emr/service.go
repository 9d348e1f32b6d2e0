package emr

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/pkg/statestore"
)

// Service lists medical records from the EMR registry and keeps a
// per-principal display cache so the hospital-name filter runs locally
// without another registry round trip.
type Service struct {
	actor  ledger.Actor
	stores *statestore.Keyed[Record]
	logger zerolog.Logger
}

func NewService(actor ledger.Actor, logger zerolog.Logger) *Service {
	return &Service{
		actor:  actor,
		stores: statestore.NewKeyed(func(r Record) string { return r.HospitalName }),
		logger: logger.With().Str("component", "emr").Logger(),
	}
}

// ListOwn returns the caller's own records. The fetched page refreshes the
// principal's display cache; an active filter term survives the refresh.
func (s *Service) ListOwn(ctx context.Context, principal string, page, limit int) ([]Record, int, error) {
	headers, total, err := s.actor.EMRListPatient(ctx, principal, page, limit)
	if err != nil {
		return nil, 0, err
	}
	records := toRecords(headers)
	s.stores.For(principal).Set(records)
	return records, total, nil
}

// Filter applies term to the caller's cached record list. The underlying
// store retains the unfiltered copy, so an empty term restores the last
// fetched page exactly. No registry call is made.
func (s *Service) Filter(principal, term string) []Record {
	return s.stores.For(principal).Search(term)
}

// ListWithSession returns a patient's records through a claimed consent
// session. Nothing is cached: session reads are the provider's view of
// someone else's data and expire with the session.
func (s *Service) ListWithSession(ctx context.Context, sessionID string, page, limit int) ([]Record, int, error) {
	headers, total, err := s.actor.EMRListWithSession(ctx, sessionID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toRecords(headers), total, nil
}

// Invalidate drops the principal's display cache.
func (s *Service) Invalidate(principal string) {
	s.stores.Drop(principal)
}
