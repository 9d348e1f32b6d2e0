package pin

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch indicates the submitted PIN does not match the stored hash.
var ErrMismatch = errors.New("pin mismatch")

// Service manages the per-principal app-lock PIN. The PIN gates the local
// app surface only; it is not an authentication factor for the ledger.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "pin").Logger(),
	}
}

func validatePIN(pin string) error {
	if len(pin) != 6 {
		return fmt.Errorf("pin must be 6 digits")
	}
	for _, ch := range pin {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("pin must be numeric")
		}
	}
	return nil
}

// Set hashes and stores the PIN for the principal, replacing any previous
// one.
func (s *Service) Set(ctx context.Context, principal, pin string) error {
	if err := validatePIN(pin); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := s.repo.Upsert(ctx, principal, string(hash)); err != nil {
		return err
	}
	s.logger.Info().Str("principal", principal).Msg("pin set")
	return nil
}

// Verify compares the submitted PIN against the stored hash. ErrNotSet when
// no PIN exists, ErrMismatch when it does not match.
func (s *Service) Verify(ctx context.Context, principal, pin string) error {
	hash, err := s.repo.Get(ctx, principal)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrMismatch
	}
	return nil
}

// Exists reports whether the principal has a PIN configured.
func (s *Service) Exists(ctx context.Context, principal string) (bool, error) {
	_, err := s.repo.Get(ctx, principal)
	if errors.Is(err, ErrNotSet) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes the principal's PIN.
func (s *Service) Clear(ctx context.Context, principal string) error {
	if err := s.repo.Delete(ctx, principal); err != nil {
		return err
	}
	s.logger.Info().Str("principal", principal).Msg("pin cleared")
	return nil
}
