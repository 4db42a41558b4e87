package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/config"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"
	fxmodules "github.com/RealFascinated/scoresaber-reloaded-sub003/internal/fx"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/middleware"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/server"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
		fx.Invoke(runTracker),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(trackerServer.Routes()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// runTracker runs the polling loop that reconciles every tracked
// player's daily snapshot. Reconciliation is idempotent per calendar
// day, so the interval can be shorter than a day.
func runTracker(
	lc fx.Lifecycle,
	reconciler *service.Reconciler,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)

				ticker := time.NewTicker(cfg.TrackInterval)
				defer ticker.Stop()

				for {
					if _, err := reconciler.RunDaily(loopCtx, time.Now()); err != nil {
						logger.Error().Err(err).Msg("tracker pass failed")
					}

					select {
					case <-loopCtx.Done():
						return
					case <-ticker.C:
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			logger.Info().Msg("tracker loop stopped")
			return nil
		},
	})
}
