package services

import (
	"errors"
	"fmt"
)

// Общие ошибки сервисного слоя и маппинга HTTP.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrAdminNotFound      = errors.New("admin not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed            = errors.New("validation failed")
	ErrInvalidStatusTransition     = errors.New("invalid tournament status transition")
	ErrRegistrationNotOpen         = errors.New("tournament registration is not open")
	ErrTournamentFull              = errors.New("tournament registration is full")
	ErrInsufficientParticipants    = errors.New("not enough participants to start the bracket")
	ErrOddDoublesParticipants      = errors.New("doubles tournaments require an even participant count")
	ErrSeedingIncomplete           = errors.New("manual seeding is not complete")
	ErrParticipantAdditionInFlight = errors.New("a participant addition is still in progress")
	ErrStartInFlight               = errors.New("tournament start already in progress")
	ErrFinalNotDecided             = errors.New("the final match has no confirmed winner yet")
	ErrMatchAlreadyConfirmed       = errors.New("match result is already confirmed")
	ErrTournamentTerminal          = errors.New("tournament is already completed or cancelled")

	// Ошибки аутентификации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrAdminEmailConflict = errors.New("email address is already in use")
)

// validationErr attaches a specific user-facing reason to a sentinel so
// callers can both match with errors.Is and surface the reason verbatim.
func validationErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// BackendError wraps a failed bracket backend call. Local state is left
// unchanged when it is returned; the message is surfaced to the admin
// verbatim.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
