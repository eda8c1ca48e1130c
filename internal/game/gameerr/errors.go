// Package gameerr defines the error taxonomy shared by the casino engines and
// the session orchestrator. Callers classify with errors.Is against the
// category sentinels.
package gameerr

import (
	"errors"
	"fmt"
)

// Categories.
var (
	// ErrValidation marks input rejected before any state mutation.
	ErrValidation = errors.New("validation failed")
	// ErrConcurrentRound marks an action that does not fit the current round
	// state. Clients are expected to ignore it.
	ErrConcurrentRound = errors.New("round state conflict")
	// ErrConfiguration marks an inconsistent catalog or configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Specific validation failures.
var (
	ErrInvalidBet        = fmt.Errorf("%w: bet must be a positive whole amount", ErrValidation)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", ErrValidation)
	ErrInvalidChoice     = fmt.Errorf("%w: invalid choice", ErrValidation)
	ErrUnknownItem       = fmt.Errorf("%w: unknown item", ErrValidation)
	ErrUnknownTier       = fmt.Errorf("%w: unknown case tier", ErrValidation)
	ErrUnknownGame       = fmt.Errorf("%w: unknown game", ErrValidation)
	ErrNotClaimable      = fmt.Errorf("%w: reward not claimable", ErrValidation)
)

// Specific round-state conflicts.
var (
	ErrRoundActive   = fmt.Errorf("%w: round already active", ErrConcurrentRound)
	ErrNoActiveRound = fmt.Errorf("%w: no active round", ErrConcurrentRound)
)

// Configf returns a configuration error with a formatted detail message.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Validationf wraps base, which should be a validation sentinel, with detail.
func Validationf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
