// Package app wires configuration, storage, services and transports together.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/config"
	"github.com/vovakirdan/marketchat/internal/service/catalog"
	"github.com/vovakirdan/marketchat/internal/service/chat"
	"github.com/vovakirdan/marketchat/internal/store"
	"github.com/vovakirdan/marketchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/marketchat/internal/transport/http"
)

// DevServer is the reference messaging service: REST API, push feed and SQLite storage.
type DevServer struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	auth            *auth.Service
	catalog         *catalog.Service
	store           store.Store
	log             *zerolog.Logger
}

// NewDevServer constructs the service with provided configuration.
func NewDevServer(cfg config.DevServerConfig, logger *zerolog.Logger) (*DevServer, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, JWTConfig(cfg))
	hub := transporthttp.NewPushHub(logger)
	chatService := chat.New(st, chat.Options{
		RecallWindow: cfg.RecallWindow,
		Publisher:    hub,
		Logger:       logger,
	})
	catalogService := catalog.New(st)

	server := transporthttp.NewServer(transporthttp.Deps{
		Auth:    authService,
		Chat:    chatService,
		Catalog: catalogService,
		Hub:     hub,
	}, cfg, logger)

	return &DevServer{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		auth:            authService,
		catalog:         catalogService,
		store:           st,
		log:             logger,
	}, nil
}

// JWTConfig derives token settings from the devserver configuration.
func JWTConfig(cfg config.DevServerConfig) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    30 * 24 * time.Hour,
	}
}

// Auth exposes the token service, used for seeding members.
func (a *DevServer) Auth() *auth.Service {
	return a.auth
}

// Catalog exposes the listing service, used for seeding products.
func (a *DevServer) Catalog() *catalog.Service {
	return a.catalog
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *DevServer) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("devserver listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close closes database and other resources.
func (a *DevServer) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
		a.store = nil
	}
}
