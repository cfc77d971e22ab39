// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package main is the entry point for launcherd, the Packboard launcher
// daemon.
//
// launcherd keeps a live view of the install and update jobs running on this
// machine. The installer pipeline publishes task events over a local NATS
// push channel; a reconciler periodically pulls the full task list from the
// storefront backend to correct anything the push channel missed. The
// launcher UI reads the resulting snapshot over a loopback HTTP API and a
// WebSocket feed.
//
// # Startup Order
//
//  1. Configuration: koanf v2 layering defaults, config.yaml, PACKBOARD_* env
//  2. Snapshot store: BadgerDB warm start so the UI has last-known state
//  3. Embedded NATS server (optional): hosts the local push channel
//  4. Supervisor tree: WebSocket hub, ingestor, reconciler, HTTP server
//
// # Shutdown
//
// SIGINT/SIGTERM cancels the root context: the HTTP server drains, the
// ingestor and reconciler stop (discarding any in-flight pull), the final
// snapshot stays persisted, and the embedded broker shuts down last.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/packboard/packboard/internal/api"
	"github.com/packboard/packboard/internal/broker"
	"github.com/packboard/packboard/internal/config"
	"github.com/packboard/packboard/internal/ingest"
	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/reconcile"
	"github.com/packboard/packboard/internal/snapshot"
	"github.com/packboard/packboard/internal/supervisor"
	"github.com/packboard/packboard/internal/supervisor/services"
	"github.com/packboard/packboard/internal/task"
	ws "github.com/packboard/packboard/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("backend_url", cfg.Backend.URL).
		Bool("push_enabled", cfg.NATS.Enabled).
		Bool("push_embedded", cfg.NATS.Embedded).
		Msg("starting launcherd")

	store := task.NewStore()

	// Warm-start from the persisted snapshot; the first successful pull
	// replaces whatever we load here.
	var snap *snapshot.Store
	if cfg.Snapshot.Enabled {
		snap, err = snapshot.Open(cfg.Snapshot.Path)
		if err != nil {
			logging.Warn().Err(err).Msg("snapshot store unavailable, continuing without warm start")
		} else {
			defer func() {
				if err := snap.Close(); err != nil {
					logging.Error().Err(err).Msg("error closing snapshot store")
				}
			}()
			if tasks, err := snap.Load(); err != nil {
				logging.Warn().Err(err).Msg("failed to load persisted snapshot")
			} else if len(tasks) > 0 {
				store.Seed(tasks)
				logging.Info().Int("tasks", len(tasks)).Msg("warm-started from persisted snapshot")
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Push channel. The embedded broker failing to start is not fatal; the
	// reconciler covers the gap poll-only, at the idle cadence.
	natsURL := cfg.NATS.URL
	var embedded *broker.Embedded
	if cfg.NATS.Enabled && cfg.NATS.Embedded {
		brokerCfg := broker.DefaultConfig(cfg.NATS.StoreDir)
		brokerCfg.MaxMemory = cfg.NATS.MaxMemory
		brokerCfg.MaxStore = cfg.NATS.MaxStore
		embedded, err = broker.Start(brokerCfg)
		if err != nil {
			logging.Warn().Err(err).Msg("embedded push broker failed to start, continuing in poll-only mode")
		} else {
			natsURL = embedded.ClientURL()
			logging.Info().Str("url", natsURL).Msg("embedded push broker started")
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := embedded.Shutdown(shutdownCtx); err != nil {
					logging.Error().Err(err).Msg("error shutting down embedded push broker")
				}
			}()
		}
	}

	hub := ws.NewHub()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddSyncService(services.NewWebSocketHubService(hub))

	if cfg.NATS.Enabled && (embedded != nil || !cfg.NATS.Embedded) {
		subCfg := ingest.DefaultSubscriberConfig(natsURL)
		subCfg.DurableName = cfg.NATS.DurableName
		subCfg.QueueGroup = cfg.NATS.QueueGroup
		subCfg.SubscribersCount = cfg.NATS.SubscribersCount
		subCfg.AckWaitTimeout = cfg.NATS.AckWait
		subCfg.CloseTimeout = cfg.NATS.CloseTimeout
		subCfg.MaxReconnects = cfg.NATS.MaxReconnects
		subCfg.ReconnectWait = cfg.NATS.ReconnectWait

		sub, err := ingest.NewSubscriber(subCfg, ingest.NewWatermillLogger())
		if err != nil {
			logging.Warn().Err(err).Msg("push channel subscriber unavailable, continuing in poll-only mode")
		} else {
			ingestor := ingest.New(sub, store, hub)
			tree.AddSyncService(services.NewRunnerService("task-ingestor", ingestor))
		}
	}

	client := reconcile.NewBackendClient(reconcile.ClientConfig{
		URL:     cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	})
	reconciler := reconcile.NewReconciler(client, store, reconcile.Config{
		CheckInterval:   cfg.Tasks.CheckInterval,
		ActiveThreshold: cfg.Tasks.ActiveThreshold,
		IdleThreshold:   cfg.Tasks.IdleThreshold,
	})
	if snap != nil {
		reconciler.SetPersister(snap)
	}
	reconciler.SetNotifier(hub)
	tree.AddSyncService(services.NewRunnerService("task-reconciler", reconciler))

	handler := api.NewHandler(store, reconciler, hub)
	server := api.NewServer(cfg.Server, handler)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("launcherd ready")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("supervisor tree failed")
	}

	// Give stragglers a moment to report before deferred cleanup runs.
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
		time.Sleep(100 * time.Millisecond)
	}

	logging.Info().Msg("launcherd stopped")
}
