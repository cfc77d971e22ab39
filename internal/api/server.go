// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package api exposes the local HTTP surface the launcher UI talks to: the
// task list and its projections, stage decoding, a WebSocket push endpoint,
// health, and Prometheus metrics. The server binds to loopback; it is not a
// public surface.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packboard/packboard/internal/config"
	pbmw "github.com/packboard/packboard/internal/middleware"
)

// NewRouter assembles the chi router with middleware and all routes.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(pbmw.RequestID)
	r.Use(pbmw.Logger)
	r.Use(pbmw.Prometheus)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// No request timeout on the websocket route; the connection is long-lived.
	r.Get("/ws", h.WebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Timeout))
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/summary", h.TaskSummary)
		r.Get("/tasks/{id}", h.GetTask)
		r.Post("/stage/describe", h.DescribeStage)
		r.Get("/modpacks/{id}/installing", h.ModpackInstalling)
		r.Get("/instances/bootstrapping", h.InstancesBootstrapping)
	})

	return r
}

// NewServer builds the http.Server for the local API.
func NewServer(cfg config.ServerConfig, h *Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           NewRouter(h, cfg),
		ReadTimeout:       cfg.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Timeout,
		IdleTimeout:       2 * cfg.Timeout,
	}
}
