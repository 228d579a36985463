package service

import (
	"errors"

	"github.com/Freeeeeet/notebase/internal/auth"
)

// Машиночитаемые коды ошибок для клиентов
const (
	CodeOK                 = "OK"
	CodeNoAuth             = "NO_AUTH"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeMissingNoteID      = "MISSING_NOTE_ID"
	CodeNoteNotFound       = "NOTE_NOT_FOUND"
	CodeNoteInactive       = "NOTE_INACTIVE"
	CodeNoFile             = "NO_FILE"
	CodeTopicNotFound      = "TOPIC_NOT_FOUND"
	CodeSubjectNotFound    = "SUBJECT_NOT_FOUND"
	CodeAccessCheckFailed  = "ACCESS_CHECK_FAILED"
	CodeNoEnrollment       = "NO_ENROLLMENT"
	CodeEnrollmentExpired  = "ENROLLMENT_EXPIRED"
	CodeTierInsufficient   = "TIER_INSUFFICIENT"
	CodeSignedURLFailed    = "SIGNED_URL_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTierIneligible     = "TIER_INELIGIBLE"
	CodeSuspended          = "SUSPENDED"
	CodeAbuseWarning       = "ABUSE_WARNING"
	CodeInsufficientCredit = "INSUFFICIENT_CREDITS"
	CodeMissingMessage     = "MISSING_MESSAGE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInvalidCode        = "INVALID_CODE"
	CodeCodeExhausted      = "CODE_EXHAUSTED"
)

var sentinelCodes = []struct {
	err  error
	code string
}{
	{auth.ErrNoCredential, CodeNoAuth},
	{auth.ErrInvalidCredential, CodeAuthFailed},
	{ErrMissingNoteID, CodeMissingNoteID},
	{ErrNoteNotFound, CodeNoteNotFound},
	{ErrNoteInactive, CodeNoteInactive},
	{ErrNoFile, CodeNoFile},
	{ErrTopicNotFound, CodeTopicNotFound},
	{ErrSubjectNotFound, CodeSubjectNotFound},
	{ErrAccessCheckFailed, CodeAccessCheckFailed},
	{ErrNoEnrollment, CodeNoEnrollment},
	{ErrEnrollmentExpired, CodeEnrollmentExpired},
	{ErrSignedURLFailed, CodeSignedURLFailed},
	{ErrTierIneligible, CodeTierIneligible},
	{ErrSuspended, CodeSuspended},
	{ErrMissingMessage, CodeMissingMessage},
	{ErrServiceUnavailable, CodeServiceUnavailable},
	{ErrInvalidCode, CodeInvalidCode},
	{ErrCodeExhausted, CodeCodeExhausted},
	{ErrInvalidSubjectID, CodeInvalidRequest},
}

// ErrorCode возвращает код ошибки для клиента; nil даёт CodeOK
func ErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var tierErr *TierInsufficientError
	var creditsErr *InsufficientCreditsError
	var abuseErr *AbuseWarningError

	switch {
	case errors.As(err, &tierErr):
		return CodeTierInsufficient
	case errors.As(err, &creditsErr):
		return CodeInsufficientCredit
	case errors.As(err, &abuseErr):
		return CodeAbuseWarning
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}

	return CodeInternalError
}
