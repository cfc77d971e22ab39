// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/metrics"
	"github.com/packboard/packboard/internal/task"
)

// Config holds the reconciliation cadence.
type Config struct {
	// CheckInterval is how often staleness is evaluated.
	CheckInterval time.Duration

	// ActiveThreshold is the maximum snapshot age while any task is
	// Running. Kept tight so install progress cannot silently stall.
	ActiveThreshold time.Duration

	// IdleThreshold is the maximum snapshot age when no task is Running.
	IdleThreshold time.Duration
}

// DefaultConfig returns the production cadence: check every 10s, resync
// after 30s while active, after 5m when idle.
func DefaultConfig() Config {
	return Config{
		CheckInterval:   10 * time.Second,
		ActiveThreshold: 30 * time.Second,
		IdleThreshold:   5 * time.Minute,
	}
}

// Persister stores the live snapshot after each successful resync so the UI
// has a warm view on next startup. May be nil.
type Persister interface {
	Save(tasks []task.Task) error
}

// Notifier is told when a resync replaced the snapshot. May be nil.
type Notifier interface {
	Resynced(count int, revision uint64)
}

// Reconciler periodically replaces the task snapshot from the authoritative
// pull query. It is the second of the store's two writers (the ingestor
// being the first); the store serializes them.
type Reconciler struct {
	client  Client
	store   *task.Store
	cfg     Config
	persist Persister
	notify  Notifier

	// now is injectable for cadence tests.
	now func() time.Time

	mu       sync.Mutex
	running  bool
	lastSync time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReconciler creates a reconciler pulling through client into store.
// Zero-value cfg fields fall back to DefaultConfig.
func NewReconciler(client Client, store *task.Store, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.ActiveThreshold <= 0 {
		cfg.ActiveThreshold = def.ActiveThreshold
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = def.IdleThreshold
	}

	return &Reconciler{
		client: client,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetPersister sets the snapshot persister. Call before Start.
func (r *Reconciler) SetPersister(p Persister) {
	r.persist = p
}

// SetNotifier sets the resync notifier. Call before Start.
func (r *Reconciler) SetNotifier(n Notifier) {
	r.notify = n
}

// Start performs one unconditional full pull, then begins the periodic
// staleness check. The initial pull may fail; that is logged and the first
// tick whose staleness threshold has elapsed retries it.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopChan = make(chan struct{})
	r.mu.Unlock()

	logging.Info().
		Dur("check_interval", r.cfg.CheckInterval).
		Dur("active_threshold", r.cfg.ActiveThreshold).
		Dur("idle_threshold", r.cfg.IdleThreshold).
		Msg("starting task reconciler")

	r.resync(ctx)

	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop halts the check ticker and waits for any in-flight pull to finish.
// An in-flight pull completing after Stop discards its result instead of
// writing to a store the reconciler no longer owns.
func (r *Reconciler) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopChan)
	r.mu.Unlock()

	r.wg.Wait()
	logging.Info().Msg("task reconciler stopped")
	return nil
}

// LastSync returns the time of the last successful resync (zero if none).
func (r *Reconciler) LastSync() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSync
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick resyncs when the snapshot is older than the adaptive threshold:
// ActiveThreshold while anything is Running, IdleThreshold otherwise.
func (r *Reconciler) tick(ctx context.Context) {
	threshold := r.cfg.IdleThreshold
	if r.store.HasRunningTasks() {
		threshold = r.cfg.ActiveThreshold
	}

	r.mu.Lock()
	elapsed := r.now().Sub(r.lastSync)
	r.mu.Unlock()

	if elapsed >= threshold {
		r.resync(ctx)
	}
}

// resync pulls the full task list and replaces the snapshot. On failure the
// snapshot and the sync timestamp are left untouched, so the next tick
// retries at the normal cadence rather than storming.
func (r *Reconciler) resync(ctx context.Context) {
	start := time.Now()

	raws, err := r.client.GetAllTasks(ctx)
	if err != nil {
		metrics.Resyncs.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Msg("task resync failed, keeping last-known snapshot")
		return
	}

	records, dropped := task.ParseRecords(raws)
	if dropped > 0 {
		metrics.InvalidRecordsDropped.WithLabelValues("pull").Add(float64(dropped))
	}

	// Liveness check: a pull that was in flight during Stop is discarded.
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		logging.Debug().Msg("discarding resync result after stop")
		return
	}
	count := r.store.ReplaceAll(records)
	r.lastSync = r.now()
	r.mu.Unlock()

	metrics.Resyncs.WithLabelValues("success").Inc()
	metrics.ResyncDuration.Observe(time.Since(start).Seconds())
	logging.Debug().Int("tasks", count).Int("dropped", dropped).Msg("task snapshot resynced")

	if r.persist != nil {
		if err := r.persist.Save(r.store.List()); err != nil {
			logging.Warn().Err(err).Msg("failed to persist task snapshot")
		}
	}
	if r.notify != nil {
		r.notify.Resynced(count, r.store.Revision())
	}
}
