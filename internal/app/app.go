package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/speechroom/speechroom-server/internal/auth"
	"github.com/speechroom/speechroom-server/internal/config"
	"github.com/speechroom/speechroom-server/internal/core"
	"github.com/speechroom/speechroom-server/internal/service/progress"
	"github.com/speechroom/speechroom-server/internal/store"
	"github.com/speechroom/speechroom-server/internal/store/sqlite"
	transporthttp "github.com/speechroom/speechroom-server/internal/transport/http"
	"github.com/speechroom/speechroom-server/internal/video"
	"github.com/speechroom/speechroom-server/internal/video/livekit"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Audience: cfg.Auth.JWTAudience,
		TTL:      cfg.Auth.TokenTTL,
	}
	authService := auth.NewService(st, jwtConfig, cfg.Auth.DevMode)
	if cfg.Auth.DevMode {
		logger.Warn().Str("therapist_id", auth.DevTherapistID).Msg("auth dev mode: unauthenticated requests act as the demo therapist")
	}

	progressService := progress.New(st, st)

	var videoEngine video.Engine
	if cfg.Video.Enabled {
		videoEngine = livekit.New(cfg.Video.APIKey, cfg.Video.APISecret, cfg.Video.URL, cfg.Video.TokenTTL)
		logger.Info().Str("url", cfg.Video.URL).Msg("livekit video engine enabled")
	}

	hub := core.NewHub(logger)
	server := transporthttp.NewServer(hub, authService, progressService, videoEngine, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the hub loop and the HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
