package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/notebase/internal/abuse"
	"github.com/Freeeeeet/notebase/internal/ai"
	"github.com/Freeeeeet/notebase/internal/auth"
	"github.com/Freeeeeet/notebase/internal/config"
	"github.com/Freeeeeet/notebase/internal/controller/httpapi"
	"github.com/Freeeeeet/notebase/internal/metrics"
	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/notify"
	"github.com/Freeeeeet/notebase/internal/repository"
	"github.com/Freeeeeet/notebase/internal/service"
	"github.com/Freeeeeet/notebase/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Server - HTTP API со всеми зависимостями
type Server struct {
	pool   *pgxpool.Pool
	http   *http.Server
	logger *zap.Logger
}

// NewPool подключается к базе и проверяет соединение
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewServer собирает репозитории, сервисы и роутер
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	pool, err := NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	handler, err := newHandler(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Server{
		pool: pool,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

func newHandler(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramAdminChatID, logger)
	if err != nil {
		return nil, err
	}

	// Репозитории
	notes := repository.NewNoteRepository(pool)
	subjects := repository.NewSubjectRepository(pool)
	enrollments := repository.NewEnrollmentRepository(pool)
	users := repository.NewUserRepository(pool)
	credits := repository.NewCreditRepository(pool)

	// Внешние сервисы
	signer := storage.NewClient(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket, &http.Client{Timeout: 15 * time.Second})
	completer := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout)

	// Сервисы
	gate := service.NewContentGate(notes, subjects, enrollments, users, signer, m, service.ContentGateConfig{
		Bucket: cfg.StorageBucket,
		URLTTL: cfg.SignedURLTTL,
	}, logger)

	ledger := service.NewCreditLedger(credits, enrollments, notifier, m, service.LedgerConfig{
		Allotments: model.CreditAllotments{
			model.TierSilver:   0,
			model.TierGold:     cfg.GoldCredits,
			model.TierPlatinum: cfg.PlatinumCredits,
		},
		StrikeLimit: cfg.AbuseStrikeLimit,
	}, logger)

	chat := service.NewChatService(ledger, abuse.Default(), completer, m, logger)

	sessions := service.NewSessionService(users, enrollments, subjects, service.SessionConfig{
		CacheSize: cfg.SessionCacheSize,
		CacheTTL:  cfg.SessionCacheTTL,
	}, logger)

	enrollmentService := service.NewEnrollmentService(newActivationStore(pool), enrollments, subjects, sessions, logger)

	return httpapi.NewRouter(httpapi.Deps{
		Verifier:    auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		Gate:        gate,
		Chat:        chat,
		Credits:     ledger,
		Enrollments: enrollmentService,
		Sessions:    sessions,
		Gatherer:    registry,
		Pinger:      pool.Ping,
	}, httpapi.Options{
		Debug:       !cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
	}, logger), nil
}

// Run обслуживает запросы до отмены ctx, затем корректно завершает сервер
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close освобождает пул соединений
func (s *Server) Close() {
	s.pool.Close()
}
