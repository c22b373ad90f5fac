// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/aocrecs/internal/logging"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ShutdownHook releases a resource the API depends on once the server has
// stopped taking requests.
type ShutdownHook struct {
	Name string
	Run  func(ctx context.Context) error
}

// HTTPServerService runs the API server under a supervisor. On cancellation
// it announces the drain, shuts the server down, then runs its hooks in
// order, all within one shutdown deadline.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
	onDrain         func()
	hooks           []ShutdownHook
}

// HTTPOption configures an HTTPServerService.
type HTTPOption func(*HTTPServerService)

// WithServiceName overrides the supervisor log name.
func WithServiceName(name string) HTTPOption {
	return func(h *HTTPServerService) { h.name = name }
}

// WithDrainNotifier calls fn before the server stops accepting requests,
// typically to fail readiness checks.
func WithDrainNotifier(fn func()) HTTPOption {
	return func(h *HTTPServerService) { h.onDrain = fn }
}

// WithShutdownHooks runs hooks after a graceful shutdown. A failing hook is
// logged and does not stop later ones.
func WithShutdownHooks(hooks ...ShutdownHook) HTTPOption {
	return func(h *HTTPServerService) { h.hooks = append(h.hooks, hooks...) }
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout
// defaults to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, opts ...HTTPOption) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	h := &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve implements suture.Service. A listener failure is returned so the
// supervisor restarts the server; hooks only run on cancellation.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		return h.drain(ctx.Err(), errCh)
	}
}

func (h *HTTPServerService) drain(cause error, errCh <-chan error) error {
	if h.onDrain != nil {
		h.onDrain()
	}

	// The supervisor context is already canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	start := time.Now()
	shutdownErr := h.server.Shutdown(shutdownCtx)
	if shutdownErr == nil {
		<-errCh
		logging.Info().Str("service", h.name).Dur("took", time.Since(start)).Msg("HTTP server drained")
	}

	hookErr := h.runHooks(shutdownCtx)
	if shutdownErr != nil {
		return errors.Join(fmt.Errorf("http server shutdown failed: %w", shutdownErr), hookErr)
	}
	if hookErr != nil {
		return hookErr
	}
	return cause
}

func (h *HTTPServerService) runHooks(ctx context.Context) error {
	var errs []error
	for _, hook := range h.hooks {
		if err := hook.Run(ctx); err != nil {
			logging.Error().Err(err).Str("hook", hook.Name).Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("shutdown hook %s: %w", hook.Name, err))
		}
	}
	return errors.Join(errs...)
}

// String names the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}
