package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/notebase/internal/model"
)

// Ошибки доступа к документам
var (
	ErrMissingNoteID     = errors.New("note id is required")
	ErrNoteNotFound      = errors.New("note not found")
	ErrNoteInactive      = errors.New("note is not active")
	ErrNoFile            = errors.New("note has no file")
	ErrTopicNotFound     = errors.New("topic not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrAccessCheckFailed = errors.New("access check failed")
	ErrNoEnrollment      = errors.New("no active enrollment for this subject")
	ErrEnrollmentExpired = errors.New("enrollment has expired")
	ErrSignedURLFailed   = errors.New("failed to issue signed url")
)

// Ошибки AI-чата и учёта кредитов
var (
	ErrTierIneligible     = errors.New("tier has no ai credit allotment")
	ErrSuspended          = errors.New("ai access suspended for this month")
	ErrMissingMessage     = errors.New("message is required")
	ErrServiceUnavailable = errors.New("ai service temporarily unavailable")
)

// Ошибки активации и выбора предметов
var (
	ErrInvalidSubjectID = errors.New("subject id is not a valid uuid")
	ErrInvalidCode      = errors.New("access code is invalid or expired")
	ErrCodeExhausted    = errors.New("access code has no uses left")
)

// TierInsufficientError is returned when the enrollment tier is below the note's minimum tier.
type TierInsufficientError struct {
	Required model.Tier
	Current  model.Tier
}

func (e *TierInsufficientError) Error() string {
	return fmt.Sprintf("tier %q required, enrollment has %q", e.Required, e.Current)
}

// InsufficientCreditsError is returned when a message costs more than the remaining balance.
type InsufficientCreditsError struct {
	Required  int
	Remaining int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("message needs %d credits, %d remaining", e.Required, e.Remaining)
}

// AbuseWarningError is returned for a flagged message that did not yet trigger suspension.
type AbuseWarningError struct {
	Strikes      int
	WarningsLeft int
}

func (e *AbuseWarningError) Error() string {
	return fmt.Sprintf("message flagged as abuse (strike %d, %d warnings left)", e.Strikes, e.WarningsLeft)
}
