// Package httpapi exposes the gate, the AI chat and session state over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/notebase/internal/auth"
	"github.com/Freeeeeet/notebase/internal/guard"
	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type NoteGate interface {
	Authorize(ctx context.Context, identity auth.Identity, noteID, clientIP string) (*service.AccessGrant, error)
}

type Chat interface {
	Submit(ctx context.Context, identity auth.Identity, req service.ChatRequest) (*service.ChatReply, *model.CreditRecord, error)
}

type CreditStatus interface {
	Status(ctx context.Context, userID string) (*model.CreditRecord, error)
}

type Enrollments interface {
	Activate(ctx context.Context, userID, code string) (*model.Enrollment, error)
	SelectSubjects(ctx context.Context, userID string, subjectIDs []string) (int, error)
}

type Sessions interface {
	Snapshot(ctx context.Context, userID string) (guard.Session, error)
	Evaluate(ctx context.Context, userID string, req guard.Requirements) (guard.Decision, error)
}

// Deps - зависимости HTTP-слоя
type Deps struct {
	Verifier    TokenVerifier
	Gate        NoteGate
	Chat        Chat
	Credits     CreditStatus
	Enrollments Enrollments
	Sessions    Sessions
	Gatherer    prometheus.Gatherer
	Pinger      func(ctx context.Context) error
}

type Options struct {
	Debug       bool
	CORSOrigins []string
}

type Handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter собирает gin engine со всеми маршрутами
func NewRouter(deps Deps, opts Options, logger *zap.Logger) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recovery(logger))
	engine.Use(requestLogger(logger))
	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))

	h := &Handler{deps: deps, logger: logger}

	engine.GET("/healthz", h.health)
	if deps.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")

	protected := api.Group("")
	protected.Use(requireAuth(deps.Verifier))
	{
		protected.POST("/notes/serve", h.serveNote)
		protected.POST("/ai/chat", h.chat)
		protected.GET("/ai/credits", h.credits)
		protected.POST("/enrollments/activate", h.activate)
		protected.PUT("/subjects/selection", h.selectSubjects)
	}

	public := api.Group("")
	public.Use(optionalAuth(deps.Verifier))
	{
		public.GET("/session", h.session)
		public.GET("/guard", h.guard)
	}

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "apikey", "X-Client-Info"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func (h *Handler) health(c *gin.Context) {
	if h.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.deps.Pinger(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
