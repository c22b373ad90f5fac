// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/aocrecs/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer preflight
	r.Use(middleware.PrometheusMetrics)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitQuery())
			r.Use(middleware.Compression())

			r.Post("/search", router.handler.Search)
			r.Get("/search/flags", router.handler.SearchFlags)
			r.Get("/matches/{match_id}/flags", router.handler.MatchFlags)
			r.Post("/odds", router.handler.Odds)
			r.Get("/series/{id}", router.handler.Series)
			r.Get("/events", router.handler.Events)
			r.Get("/events/{id}", router.handler.Event)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.Compression())

			r.Get("/ladders", router.handler.Ladders)
			r.Get("/ladders/{platform_id}/{ladder_id}/ranks", router.handler.LadderRanks)
			r.Get("/ladders/{platform_id}/{ladder_id}/users/{user_id}", router.handler.UserLadder)
			r.Get("/ladders/{platform_id}/{ladder_id}/users/{user_id}/rates", router.handler.UserRates)
			r.Get("/users/{platform_id}/{user_id}/ranks", router.handler.UserRanks)

			r.Get("/reports", router.handler.Reports)
			r.Route("/reports/{year}/{month}", func(r chi.Router) {
				r.Get("/", router.handler.ReportSummary)
				r.Get("/rankings", router.handler.ReportRankings)
				r.Get("/maps", router.handler.ReportMaps)
				r.Get("/improvement", router.handler.ReportImprovement)
			})
		})

		// Archives are already deflated.
		r.With(router.chiMiddleware.RateLimitDownload()).Get("/download/{file_id}", router.handler.Download)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}
