package httpapi

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/notebase/internal/service"
	"github.com/gin-gonic/gin"
)

// errInvalidRequest - тело или параметры запроса не разобраны
var errInvalidRequest = errors.New("invalid request")

type errorInfo struct {
	status  int
	message string
}

// errorTable сопоставляет код ошибки со статусом HTTP и сообщением для клиента
var errorTable = map[string]errorInfo{
	service.CodeNoAuth:             {http.StatusUnauthorized, "Authentication required"},
	service.CodeAuthFailed:         {http.StatusUnauthorized, "Authentication failed"},
	service.CodeInvalidRequest:     {http.StatusBadRequest, "Invalid request"},
	service.CodeMissingNoteID:      {http.StatusBadRequest, "Note ID is required"},
	service.CodeMissingMessage:     {http.StatusBadRequest, "Message is required"},
	service.CodeAbuseWarning:       {http.StatusBadRequest, "This message violates the usage policy"},
	service.CodeNoteNotFound:       {http.StatusNotFound, "Note not found"},
	service.CodeNoteInactive:       {http.StatusNotFound, "Note is not available"},
	service.CodeNoFile:             {http.StatusNotFound, "Note has no document attached"},
	service.CodeTopicNotFound:      {http.StatusNotFound, "Topic not found"},
	service.CodeSubjectNotFound:    {http.StatusNotFound, "Subject not found"},
	service.CodeInvalidCode:        {http.StatusNotFound, "Access code is invalid or expired"},
	service.CodeNoEnrollment:       {http.StatusForbidden, "No active enrollment for this subject"},
	service.CodeEnrollmentExpired:  {http.StatusForbidden, "Your enrollment has expired"},
	service.CodeTierInsufficient:   {http.StatusForbidden, "Your tier does not include this note"},
	service.CodeTierIneligible:     {http.StatusForbidden, "AI tutor is available on Gold and Platinum tiers"},
	service.CodeSuspended:          {http.StatusForbidden, "AI access is suspended for this month"},
	service.CodeInsufficientCredit: {http.StatusForbidden, "Not enough AI credits"},
	service.CodeCodeExhausted:      {http.StatusConflict, "Access code has no uses left"},
	service.CodeAccessCheckFailed:  {http.StatusInternalServerError, "Failed to verify access"},
	service.CodeSignedURLFailed:    {http.StatusInternalServerError, "Failed to prepare document"},
	service.CodeServiceUnavailable: {http.StatusBadGateway, "AI service is temporarily unavailable"},
	service.CodeInternalError:      {http.StatusInternalServerError, "Internal server error"},
}

// errorCode дополняет service.ErrorCode ошибками транспорта
func errorCode(err error) string {
	if errors.Is(err, errInvalidRequest) {
		return service.CodeInvalidRequest
	}
	return service.ErrorCode(err)
}

// writeError пишет ответ {error, code, ...extra}; внутренние детали наружу не попадают
func writeError(c *gin.Context, err error, extra gin.H) {
	code := errorCode(err)
	info, ok := errorTable[code]
	if !ok {
		info = errorTable[service.CodeInternalError]
	}

	body := gin.H{"error": info.message, "code": code}
	for k, v := range errorDetails(err) {
		body[k] = v
	}
	for k, v := range extra {
		body[k] = v
	}

	c.AbortWithStatusJSON(info.status, body)
}

func errorDetails(err error) gin.H {
	var tierErr *service.TierInsufficientError
	var creditsErr *service.InsufficientCreditsError
	var abuseErr *service.AbuseWarningError

	switch {
	case errors.As(err, &tierErr):
		return gin.H{"requiredTier": tierErr.Required, "currentTier": tierErr.Current}
	case errors.As(err, &creditsErr):
		return gin.H{"required": creditsErr.Required, "remaining": creditsErr.Remaining}
	case errors.As(err, &abuseErr):
		return gin.H{"strikes": abuseErr.Strikes, "warningsLeft": abuseErr.WarningsLeft}
	}
	return nil
}
