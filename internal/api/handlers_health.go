// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/aocrecs/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status          string  `json:"status"`
	Backend         string  `json:"backend"`
	StoreConnected  bool    `json:"store_connected"`
	BreakerState    string  `json:"breaker_state"`
	DownloadsActive bool    `json:"downloads_enabled"`
	Uptime          float64 `json:"uptime_seconds"`
}

func (h *Handler) status(ctx context.Context) HealthStatus {
	hs := HealthStatus{
		Status:          "healthy",
		DownloadsActive: h.svc.Downloads != nil,
		Uptime:          time.Since(h.startTime).Seconds(),
	}
	if h.svc.Health == nil {
		hs.Status = "degraded"
		return hs
	}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	hs.Backend = h.svc.Health.Backend()
	hs.BreakerState = h.svc.Health.BreakerState()
	if err := h.svc.Health.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Store ping failed")
	} else {
		hs.StoreConnected = true
	}
	if !hs.StoreConnected || hs.BreakerState == "open" {
		hs.Status = "degraded"
	}
	return hs
}

// Health reports store connectivity and breaker state. It always answers
// 200; use HealthReady for gating traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.status(r.Context()))
}

// HealthLive answers as long as the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]any{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 503 until the store is reachable, and again once the
// server starts draining.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable,
			ErrCodeServiceUnavailable, "Server is shutting down", HealthStatus{Status: "draining"})
		return
	}
	hs := h.status(r.Context())
	if hs.Status != "healthy" {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable,
			ErrCodeServiceUnavailable, "Match store is not ready", hs)
		return
	}
	WriteSuccess(w, r, hs)
}
