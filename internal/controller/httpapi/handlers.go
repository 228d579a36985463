package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/notebase/internal/ai"
	"github.com/Freeeeeet/notebase/internal/guard"
	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type serveNoteRequest struct {
	NoteID string `json:"noteId"`
}

type chatRequest struct {
	Message             string       `json:"message"`
	ConversationHistory []ai.Message `json:"conversationHistory"`
}

type activateRequest struct {
	Code string `json:"code"`
}

type selectionRequest struct {
	SubjectIDs []string `json:"subjectIds"`
}

type creditsResponse struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Strikes   int    `json:"strikes"`
	Suspended bool   `json:"suspended"`
	Month     string `json:"month"`
}

func (h *Handler) serveNote(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req serveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errInvalidRequest, err), nil)
		return
	}

	grant, err := h.deps.Gate.Authorize(c.Request.Context(), identity, req.NoteID, c.ClientIP())
	if err != nil {
		h.logFailure(c, "Note access denied", err)
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, grant)
}

func (h *Handler) chat(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errInvalidRequest, err), nil)
		return
	}

	reply, record, err := h.deps.Chat.Submit(c.Request.Context(), identity, service.ChatRequest{
		Message: req.Message,
		History: req.ConversationHistory,
	})
	if err != nil {
		h.logFailure(c, "Chat request rejected", err)
		var extra gin.H
		if record != nil && errorCode(err) == service.CodeSuspended {
			extra = gin.H{"strikes": record.AbuseStrikes}
		}
		writeError(c, err, extra)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (h *Handler) credits(c *gin.Context) {
	identity, _ := identityFrom(c)

	record, err := h.deps.Credits.Status(c.Request.Context(), identity.UserID)
	if err != nil {
		h.logFailure(c, "Credit status unavailable", err)
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, creditsView(record))
}

func creditsView(record *model.CreditRecord) creditsResponse {
	return creditsResponse{
		Used:      record.CreditsUsed,
		Limit:     record.CreditsLimit,
		Remaining: record.Remaining(),
		Strikes:   record.AbuseStrikes,
		Suspended: record.IsSuspended,
		Month:     record.MonthYear,
	}
}

func (h *Handler) activate(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errInvalidRequest, err), nil)
		return
	}

	enrollment, err := h.deps.Enrollments.Activate(c.Request.Context(), identity.UserID, req.Code)
	if err != nil {
		h.logFailure(c, "Code activation failed", err)
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) selectSubjects(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errInvalidRequest, err), nil)
		return
	}

	if _, err := h.deps.Enrollments.SelectSubjects(c.Request.Context(), identity.UserID, req.SubjectIDs); err != nil {
		h.logFailure(c, "Subject selection failed", err)
		writeError(c, err, nil)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusOK, guard.Session{})
		return
	}

	session, err := h.deps.Sessions.Snapshot(c.Request.Context(), identity.UserID)
	if err != nil {
		h.logFailure(c, "Session snapshot failed", err)
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) guard(c *gin.Context) {
	req, err := parseRequirements(c)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	identity, _ := identityFrom(c)
	decision, err := h.deps.Sessions.Evaluate(c.Request.Context(), identity.UserID, req)
	if err != nil {
		h.logFailure(c, "Guard evaluation failed", err)
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// parseRequirements читает флаги маршрута из query-параметров
func parseRequirements(c *gin.Context) (guard.Requirements, error) {
	var req guard.Requirements

	flags := []struct {
		name string
		dst  *bool
	}{
		{"requireAuth", &req.RequireAuth},
		{"requireEnrollment", &req.RequireEnrollment},
		{"requireSubjects", &req.RequireSubjectSelection},
	}
	for _, f := range flags {
		raw, ok := c.GetQuery(f.name)
		if !ok {
			continue
		}
		if raw == "" {
			*f.dst = true
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return guard.Requirements{}, fmt.Errorf("%w: %s: %v", errInvalidRequest, f.name, err)
		}
		*f.dst = v
	}

	for _, r := range c.QueryArray("requireRole") {
		req.RequireRoles = append(req.RequireRoles, model.Role(r))
	}
	for _, r := range c.QueryArray("blockRole") {
		req.BlockRoles = append(req.BlockRoles, model.Role(r))
	}

	return req, nil
}

// logFailure пишет в лог отказ; внутренние ошибки - с уровнем Error
func (h *Handler) logFailure(c *gin.Context, msg string, err error) {
	identity, _ := identityFrom(c)
	fields := []zap.Field{
		zap.String("user_id", identity.UserID),
		zap.String("code", errorCode(err)),
		zap.Error(err),
	}

	if errorTable[errorCode(err)].status >= http.StatusInternalServerError || errorCode(err) == service.CodeInternalError {
		h.logger.Error(msg, fields...)
		return
	}
	h.logger.Info(msg, fields...)
}
