package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigochat/core/chat"
	"github.com/leofalp/aigochat/core/middleware"
	"github.com/leofalp/aigochat/core/registry"
	"github.com/leofalp/aigochat/internal/server"
	"github.com/leofalp/aigochat/internal/storage"
	"github.com/leofalp/aigochat/providers/observability"
	"github.com/leofalp/aigochat/providers/observability/slogobs"
)

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	logger.Info("Starting aigochat", "version", version)

	models, err := registry.New(cfg.VendorConfigs(),
		registry.WithLogger(logger),
		registry.WithMiddleware(
			middleware.NewLogging(logger, cfg.StreamLogDetail()),
			middleware.NewTimeout(cfg.StreamTimeout),
		),
	)
	if err != nil {
		if errors.Is(err, registry.ErrNoProviders) {
			logger.Error("No API keys configured. Set at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY or GOOGLE_API_KEY")
		}
		return err
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to open conversation store", observability.AttrError, err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close conversation store", observability.AttrError, err)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("Failed to migrate conversation store", observability.AttrError, err)
		return err
	}

	orchestrator := chat.New(models, store,
		chat.WithLogger(logger),
		chat.WithObserver(slogobs.New(slogobs.WithLogger(logger))),
		chat.WithPersistTimeout(cfg.PersistTimeout),
	)
	srv := server.New(models, orchestrator, store,
		server.WithLogger(logger),
		server.WithFrontendURL(cfg.FrontendURL),
	)

	if err := srv.ListenAndServe(ctx, cfg.ListenAddr, cfg.ShutdownTimeout); err != nil {
		logger.Error("Server stopped", observability.AttrError, err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
