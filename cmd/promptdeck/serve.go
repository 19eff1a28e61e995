// ABOUTME: Service construction and HTTP server lifecycle
// ABOUTME: Wires config into stores, verifiers, and handlers per service

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/promptdeck/internal/account"
	"github.com/2389/promptdeck/internal/auth"
	"github.com/2389/promptdeck/internal/chat"
	"github.com/2389/promptdeck/internal/config"
	"github.com/2389/promptdeck/internal/email"
	"github.com/2389/promptdeck/internal/llm"
	"github.com/2389/promptdeck/internal/project"
	"github.com/2389/promptdeck/internal/store"
)

// Remote verification results are cached briefly so hot tokens do not hit
// the auth service on every request. The TTL bounds revocation lag.
const (
	remoteCacheTTL  = 30 * time.Second
	remoteCacheSize = 10000
)

// buildService constructs the handler tree for one service. The returned
// cleanup closes the store.
func buildService(service string, cfg *config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := s.Close(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)

	switch service {
	case "auth":
		validator := email.NewValidator(email.Options{
			CheckMX:          cfg.Email.CheckMX,
			CheckDisposable:  cfg.Email.CheckDisposable,
			DNSTimeout:       cfg.Email.DNSTimeout,
			DNSFailurePolicy: email.FailurePolicy(cfg.Email.DNSFailurePolicy),
			Logger:           logger,
		})
		svc := account.New(account.Config{
			Users:    s,
			Hasher:   auth.NewBcryptHasher(cfg.Auth.BcryptCost),
			Tokens:   verifier,
			Emails:   validator,
			TokenTTL: cfg.Auth.TokenTTL,
			Logger:   logger,
		})
		svc.RegisterRoutes(mux)
		return mux, cleanup, nil

	case "project":
		svc := project.New(s, s, logger)
		return protectedMux(mux, svc.RegisterRoutes, cfg, verifier, logger), cleanup, nil

	case "chat":
		provider, err := llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  cfg.LLM.RequestTimeout,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		svc := chat.New(s, s, provider, logger)
		return protectedMux(mux, svc.RegisterRoutes, cfg, verifier, logger), cleanup, nil

	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown service %q", service)
	}
}

// protectedMux registers the service routes on their own mux behind the
// auth middleware, keeping /health unauthenticated on the outer mux.
func protectedMux(mux *http.ServeMux, register func(*http.ServeMux), cfg *config.Config, verifier *auth.JWTVerifier, logger *slog.Logger) http.Handler {
	apiMux := http.NewServeMux()
	register(apiMux)

	mwCfg := auth.MiddlewareConfig{
		Mode:          auth.Mode(cfg.Auth.VerifyMode),
		Local:         verifier,
		LocalFallback: cfg.Auth.LocalFallback,
		Logger:        logger,
	}
	if cfg.Auth.VerifyMode == "remote" {
		mwCfg.Remote = auth.NewRemoteVerifier(cfg.Auth.AuthorityURL, cfg.Auth.RemoteTimeout)
		mwCfg.Cache = auth.NewTokenCache(remoteCacheTTL, remoteCacheSize)
	}

	mux.Handle("/", auth.Middleware(mwCfg)(apiMux))
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// serveHTTP runs the HTTP server until the context is canceled, then
// shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
