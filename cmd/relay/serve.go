package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/teams-relay/backend/internal/config"
	"github.com/zhouzirui/teams-relay/backend/internal/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP messaging endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *globalOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if !a.cfg.Bot.Configured() {
		a.logger.Warn("bot credentials not configured",
			zap.String("hint", "set MICROSOFT_APP_ID and MICROSOFT_APP_PASSWORD"))
	} else {
		a.logger.Info("bot credentials loaded",
			zap.String("app_id", a.cfg.Bot.AppID),
			zap.String("app_type", a.cfg.Bot.AppType),
			zap.String("tenant_id", a.cfg.Bot.EffectiveTenantID()),
		)
	}

	router := handler.NewRouter(handler.Deps{
		Info:          handler.Info{Name: serviceName, Version: serviceVersion},
		Sessions:      a.sessions,
		Personas:      a.personas,
		ActivePersona: a.persona.ID,
		DebugErrors:   a.cfg.Env == config.EnvDevelopment,
		Logger:        a.logger,
	})

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return runServer(ctx, srv, a.logger)
}

func runServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("endpoint", "/api/messages"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
