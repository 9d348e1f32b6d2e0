package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/cache"
	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/pkg/statestore"
)

// Notifier pushes consent events to a principal's connected clients. The
// websocket hub satisfies this; a nil-safe no-op is used in tests.
type Notifier interface {
	Publish(principal string, event Event)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, Event) {}

// Service orchestrates the consent-code lifecycle against the ledger. The
// ledger is authoritative for code state and expiry; the service adds the
// shared session cache, the local display cache, and the audit trail.
type Service struct {
	actor    ledger.Actor
	sessions *cache.SessionCache
	audit    AuditRepository
	notifier Notifier
	stores   *statestore.Keyed[View]
	validity time.Duration
	logger   zerolog.Logger

	now func() time.Time
}

func NewService(actor ledger.Actor, sessions *cache.SessionCache, audit AuditRepository, validity time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		actor:    actor,
		sessions: sessions,
		audit:    audit,
		notifier: noopNotifier{},
		stores:   statestore.NewKeyed(func(v View) string { return v.ProviderName }),
		validity: validity,
		logger:   logger.With().Str("component", "consent").Logger(),
		now:      time.Now,
	}
}

// SetNotifier attaches the event push target. Call before serving traffic.
func (s *Service) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// Generate mints a consent code for the caller. The ledger stamps the
// expiry; generating again before expiry replaces the previous code rather
// than stacking a second one. Codes missing an expiry (older ledger builds)
// get the configured validity window from the gateway clock.
func (s *Service) Generate(ctx context.Context, principal string) (*ActiveCode, error) {
	sc, err := s.actor.CreateConsent(ctx, principal)
	if err != nil {
		s.recordAudit(ctx, principal, ActionGenerate, nil, OutcomeFailed, err.Error())
		return nil, err
	}
	if sc.ExpiresAt.IsZero() {
		sc.ExpiresAt = s.now().Add(s.validity)
	}
	s.recordAudit(ctx, principal, ActionGenerate, []string{sc.Code}, OutcomeOK, "")
	return toActiveCode(sc, s.now()), nil
}

// Claim redeems a code on behalf of a provider and caches the granting
// patient's profile for the session's remaining lifetime.
func (s *Service) Claim(ctx context.Context, providerPrincipal, code string) (*ActiveCode, error) {
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	sc, err := s.actor.ClaimConsent(ctx, providerPrincipal, code)
	if err != nil {
		s.recordAudit(ctx, providerPrincipal, ActionClaim, []string{code}, OutcomeFailed, err.Error())
		return nil, err
	}
	if sc.ExpiresAt.IsZero() {
		sc.ExpiresAt = s.now().Add(s.validity)
	}

	profile, err := s.actor.GetPatientInfoWithConsent(ctx, sc.SessionID)
	if err != nil {
		// The claim itself succeeded; the provider can still list records
		// through the session. Only the profile prefetch is lost.
		s.logger.Warn().Str("session_id", sc.SessionID).Err(err).
			Msg("claimed session but profile prefetch failed")
	} else if cacheErr := s.sessions.PutProfile(ctx, sc.SessionID, profile, sc.ExpiresAt); cacheErr != nil {
		s.logger.Warn().Str("session_id", sc.SessionID).Err(cacheErr).
			Msg("claimed session but profile cache write failed")
	}

	s.recordAudit(ctx, providerPrincipal, ActionClaim, []string{code}, OutcomeOK, "")
	s.notifier.Publish(providerPrincipal, Event{Type: EventClaimed, SessionID: sc.SessionID, At: s.now()})
	return toActiveCode(sc, s.now()), nil
}

// SessionProfile returns the granting patient's profile for a claimed
// session, served from the shared cache when present.
func (s *Service) SessionProfile(ctx context.Context, sessionID string) (*ledger.PatientWithNIK, error) {
	if p, err := s.sessions.GetProfile(ctx, sessionID); err == nil {
		return p, nil
	} else if err != cache.ErrCacheMiss {
		s.logger.Warn().Str("session_id", sessionID).Err(err).Msg("session cache read failed")
	}
	return s.actor.GetPatientInfoWithConsent(ctx, sessionID)
}

// List returns the caller's consents and refreshes the local display cache
// used by Filter.
func (s *Service) List(ctx context.Context, principal string) ([]View, error) {
	consents, err := s.actor.ConsentList(ctx, principal)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]View, 0, len(consents))
	for _, c := range consents {
		views = append(views, toView(c, now))
	}
	s.stores.For(principal).Set(views)
	return views, nil
}

// Filter narrows the caller's cached consent list by provider name. Local
// only; an empty term restores the last listed set.
func (s *Service) Filter(principal, term string) []View {
	return s.stores.For(principal).Search(term)
}

// Revoke revokes the named codes. The call is all or nothing: the display
// cache and session cache are touched only after the ledger confirms, so a
// failed revocation leaves every code visibly active.
func (s *Service) Revoke(ctx context.Context, principal string, codes []string) error {
	if len(codes) == 0 {
		return fmt.Errorf("at least one code is required")
	}

	// Resolve codes to sessions before revoking; afterwards the ledger no
	// longer lists them.
	sessionIDs, providers := s.resolveSessions(ctx, principal, codes)

	if err := s.actor.RevokeConsent(ctx, principal, codes); err != nil {
		s.recordAudit(ctx, principal, ActionRevoke, codes, OutcomeFailed, err.Error())
		return err
	}
	s.recordAudit(ctx, principal, ActionRevoke, codes, OutcomeOK, "")

	if len(sessionIDs) > 0 {
		if err := s.sessions.Invalidate(ctx, sessionIDs...); err != nil {
			s.logger.Warn().Strs("session_ids", sessionIDs).Err(err).
				Msg("revoked on ledger but session cache invalidation failed")
		}
	}
	s.stores.Drop(principal)

	now := s.now()
	for sessionID, provider := range providers {
		if provider == "" {
			continue
		}
		s.notifier.Publish(provider, Event{Type: EventRevoked, SessionID: sessionID, At: now})
	}
	return nil
}

// resolveSessions maps codes to their session ids and granted providers
// using the current consent list. Best effort: a listing failure only costs
// the cache invalidation and provider notification, not the revocation.
func (s *Service) resolveSessions(ctx context.Context, principal string, codes []string) ([]string, map[string]string) {
	consents, err := s.actor.ConsentList(ctx, principal)
	if err != nil {
		s.logger.Warn().Err(err).Msg("consent list before revoke failed")
		return nil, nil
	}
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	var sessionIDs []string
	providers := make(map[string]string)
	for _, c := range consents {
		if wanted[c.Code] {
			sessionIDs = append(sessionIDs, c.SessionID)
			providers[c.SessionID] = c.GrantedProvider
		}
	}
	return sessionIDs, providers
}

// Audit returns the caller's recent consent operations recorded by this
// gateway.
func (s *Service) Audit(ctx context.Context, principal string, limit int) ([]AuditEntry, error) {
	return s.audit.Recent(ctx, principal, limit)
}

// Invalidate drops the principal's display cache, e.g. on logout.
func (s *Service) Invalidate(principal string) {
	s.stores.Drop(principal)
}

func (s *Service) recordAudit(ctx context.Context, principal, action string, codes []string, outcome, detail string) {
	if s.audit == nil {
		return
	}
	e := &AuditEntry{Principal: principal, Action: action, Codes: codes, Outcome: outcome, Detail: detail}
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Error().Str("action", action).Err(err).Msg("audit write failed")
	}
}
