package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/notebase/internal/app"
	"github.com/Freeeeeet/notebase/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "notebase",
		Short:         "Notebase content gate and AI tutor API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), envFile, serve)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), envFile, migrate)
			},
		},
	)

	return root
}

type runFunc func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error

// withRuntime загружает конфигурацию, логгер и обрабатывает сигналы остановки
func withRuntime(parent context.Context, envFile string, run runFunc) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting notebase",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	server, err := app.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer server.Close()

	return server.Run(ctx)
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := app.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}
