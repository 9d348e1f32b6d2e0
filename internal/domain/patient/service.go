package patient

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/ledger"
)

// defaultProfileTTL bounds how long a cached profile is served without a
// fresh registry read. Short, because kyc_status transitions happen
// server-side and the waiting screen polls for them.
const defaultProfileTTL = 30 * time.Second

type cachedProfile struct {
	profile   *ledger.PatientWithNIK
	fetchedAt time.Time
}

// Service fetches and caches patient profiles per principal. The cache holds
// the last-known-good profile: a transient registry outage serves the cached
// copy rather than failing a request that displayed fine a moment ago.
type Service struct {
	actor  ledger.Actor
	ttl    time.Duration
	logger zerolog.Logger

	mu     sync.RWMutex
	cached map[string]cachedProfile
}

func NewService(actor ledger.Actor, logger zerolog.Logger) *Service {
	return &Service{
		actor:  actor,
		ttl:    defaultProfileTTL,
		logger: logger.With().Str("component", "patient").Logger(),
		cached: make(map[string]cachedProfile),
	}
}

// Profile returns the caller's registry profile, serving from cache within
// the TTL. On a transient registry failure the last-known-good profile is
// returned when one exists; structural failures always propagate so the
// guard can route to registration.
func (s *Service) Profile(ctx context.Context, principal string) (*ledger.PatientWithNIK, error) {
	s.mu.RLock()
	entry, ok := s.cached[principal]
	s.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < s.ttl {
		return entry.profile, nil
	}

	profile, err := s.actor.GetPatientInfo(ctx, principal)
	if err != nil {
		if ledger.IsUnavailable(err) && ok {
			s.logger.Warn().Str("principal", principal).Err(err).
				Msg("registry unavailable, serving last-known-good profile")
			return entry.profile, nil
		}
		if ledger.Structural(err) {
			// A caller the registry no longer knows must not keep a
			// stale profile around.
			s.Invalidate(principal)
		}
		return nil, err
	}

	s.mu.Lock()
	s.cached[principal] = cachedProfile{profile: profile, fetchedAt: time.Now()}
	s.mu.Unlock()

	return profile, nil
}

// Register submits a registration to the patient registry. The profile
// cache for the principal is dropped so the next read observes the freshly
// created Pending profile.
func (s *Service) Register(ctx context.Context, principal string, req RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	p := ledger.Patient{
		Name:          req.Name,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		PlaceOfBirth:  req.PlaceOfBirth,
		Address:       req.Address,
		MaritalStatus: req.MaritalStatus,
	}
	if err := s.actor.RegisterPatient(ctx, principal, p, HashNIK(req.NIK)); err != nil {
		return err
	}

	s.Invalidate(principal)
	s.logger.Info().Str("principal", principal).Msg("patient registered")
	return nil
}

// Invalidate drops the cached profile for a principal, e.g. on logout or
// after a mutation that changes registry state.
func (s *Service) Invalidate(principal string) {
	s.mu.Lock()
	delete(s.cached, principal)
	s.mu.Unlock()
}
