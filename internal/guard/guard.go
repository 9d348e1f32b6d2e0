// Package guard gates route access on authentication and verification
// state. Every request through a guarded group resolves to exactly one
// decision; the response carries the decision as a machine-readable `next`
// hint so clients can replace-navigate to the right screen.
package guard

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/internal/platform/metrics"
)

// Decision is the guard's routing verdict. The mapping from verification
// state to decision is total and exclusive.
type Decision string

const (
	DecisionLoading      Decision = "loading"
	DecisionLogin        Decision = "login"
	DecisionRegistration Decision = "registration"
	DecisionWaiting      Decision = "waiting"
	DecisionRejected     Decision = "rejected"
	DecisionAllow        Decision = "allow"
)

// AuthState captures the caller's authentication status as seen by the
// guard. Authenticating is only meaningful for long-poll/login-in-progress
// callers; regular API requests always present it as false.
type AuthState struct {
	Authenticated  bool
	Authenticating bool
}

// ErrTransient marks a profile fetch failure that should not be conflated
// with "unregistered": the caller is told to retry, not redirected.
var ErrTransient = errors.New("profile fetch transiently unavailable")

// Evaluate maps (auth state, profile fetch result) to a decision.
// Precedence: authentication strictly before any profile or verification
// inspection. Structural fetch failures (unknown caller, no profile) route
// to registration; transient failures surface as ErrTransient.
func Evaluate(auth AuthState, profile *ledger.PatientWithNIK, fetchErr error) (Decision, error) {
	if auth.Authenticating {
		return DecisionLoading, nil
	}
	if !auth.Authenticated {
		return DecisionLogin, nil
	}

	if fetchErr != nil {
		if ledger.Structural(fetchErr) {
			return DecisionRegistration, nil
		}
		if ledger.IsUnavailable(fetchErr) {
			return "", ErrTransient
		}
		return "", fetchErr
	}
	if profile == nil {
		return DecisionRegistration, nil
	}

	switch profile.KYCStatus {
	case ledger.KYCPending:
		return DecisionWaiting, nil
	case ledger.KYCDenied:
		return DecisionRejected, nil
	case ledger.KYCApproved:
		return DecisionAllow, nil
	default:
		// Unknown verification state is treated as unverified.
		return DecisionRegistration, nil
	}
}

type profileKey struct{}

// ProfileFromContext returns the verified profile the guard attached for an
// allowed request.
func ProfileFromContext(ctx context.Context) *ledger.PatientWithNIK {
	p, _ := ctx.Value(profileKey{}).(*ledger.PatientWithNIK)
	return p
}

// ProfileSource fetches the caller's profile; implemented by the patient
// service so guard lookups share its cache.
type ProfileSource interface {
	Profile(ctx context.Context, principal string) (*ledger.PatientWithNIK, error)
}

// Middleware enforces the decision table on a route group. Allowed requests
// proceed with the profile on the request context; everything else is
// answered with the decision's entry point.
func Middleware(source ProfileSource, logger zerolog.Logger) echo.MiddlewareFunc {
	log := logger.With().Str("component", "guard").Logger()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			principal := identity.PrincipalFromContext(ctx)
			auth := AuthState{Authenticated: principal != ""}

			var profile *ledger.PatientWithNIK
			var fetchErr error
			if auth.Authenticated {
				profile, fetchErr = source.Profile(ctx, principal)
			}

			decision, err := Evaluate(auth, profile, fetchErr)
			if err != nil {
				if errors.Is(err, ErrTransient) {
					c.Response().Header().Set("Retry-After", "5")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "verification state temporarily unavailable")
				}
				log.Error().Err(err).Str("principal", principal).Msg("guard evaluation failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}

			metrics.RecordGuardDecision(string(decision))

			switch decision {
			case DecisionAllow:
				c.SetRequest(c.Request().WithContext(
					context.WithValue(ctx, profileKey{}, profile)))
				return next(c)
			case DecisionLoading:
				c.Response().Header().Set("Retry-After", "2")
				return respond(c, http.StatusAccepted, decision)
			case DecisionLogin:
				return respond(c, http.StatusUnauthorized, decision)
			default:
				return respond(c, http.StatusForbidden, decision)
			}
		}
	}
}

func respond(c echo.Context, status int, decision Decision) error {
	return c.JSON(status, map[string]string{
		"error": "access denied",
		"next":  string(decision),
	})
}
