// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package ingest

import (
	"context"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/metrics"
	"github.com/packboard/packboard/internal/task"
)

// Notifier receives change notifications after the store has been mutated.
// Implemented by the WebSocket hub; may be nil when no UI is attached.
type Notifier interface {
	TaskUpserted(t task.Task)
	TaskRemoved(id string)
}

// Ingestor maintains the push-channel subscriptions and writes incoming
// events through the task store's merge operations.
//
// Subscription setup may fail (channel unavailable); that is logged and the
// ingestor stays inactive so the reconciler can operate poll-only. After
// Stop returns, no handler touches the store again.
type Ingestor struct {
	sub    message.Subscriber
	store  *task.Store
	notify Notifier

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an ingestor reading from sub into store. notify may be nil.
func New(sub message.Subscriber, store *task.Store, notify Notifier) *Ingestor {
	return &Ingestor{sub: sub, store: store, notify: notify}
}

// Start subscribes to the three task topics and begins consuming. A
// subscription failure is logged and leaves the ingestor inactive; Start
// still returns nil so the daemon degrades to poll-only rather than dying.
func (i *Ingestor) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)

	type subscription struct {
		topic   string
		handler func(payload []byte)
	}
	subs := []subscription{
		{TopicTaskCreated, func(p []byte) { i.handleUpsert("created", p) }},
		{TopicTaskUpdated, func(p []byte) { i.handleUpsert("updated", p) }},
		{TopicTaskRemoved, i.handleRemove},
	}

	channels := make([]<-chan *message.Message, 0, len(subs))
	for _, sub := range subs {
		ch, err := i.sub.Subscribe(runCtx, sub.topic)
		if err != nil {
			cancel()
			i.mu.Unlock()
			logging.Warn().Err(err).Str("topic", sub.topic).
				Msg("push channel unavailable, continuing in poll-only mode")
			return nil
		}
		channels = append(channels, ch)
	}

	i.running = true
	i.cancel = cancel
	for n, ch := range channels {
		i.wg.Add(1)
		go i.consume(runCtx, ch, subs[n].handler)
	}
	i.mu.Unlock()

	logging.Info().Msg("push channel ingestor started")
	return nil
}

// Stop cancels all subscriptions, waits for in-flight handlers, and closes
// the subscriber. Safe to call when the ingestor never became active.
func (i *Ingestor) Stop() error {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return nil
	}
	i.running = false
	i.cancel()
	i.mu.Unlock()

	i.wg.Wait()
	err := i.sub.Close()
	logging.Info().Msg("push channel ingestor stopped")
	return err
}

// consume drains one topic until cancellation. Every message is acked,
// including malformed ones - redelivering garbage cannot make it parse, and
// the periodic full resync corrects any real loss.
func (i *Ingestor) consume(ctx context.Context, ch <-chan *message.Message, handler func([]byte)) {
	defer i.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handler(msg.Payload)
			msg.Ack()
		}
	}
}

// handleUpsert validates one task record and merges it into the store.
func (i *Ingestor) handleUpsert(kind string, payload []byte) {
	rec, err := task.ParseRecord(payload)
	if err != nil {
		metrics.InvalidRecordsDropped.WithLabelValues("push").Inc()
		logging.Warn().Err(err).Str("kind", kind).Msg("dropping invalid task event")
		return
	}

	t := i.store.Apply(rec)
	metrics.EventsIngested.WithLabelValues(kind).Inc()
	if i.notify != nil {
		i.notify.TaskUpserted(t)
	}
}

// handleRemove deletes the task named by the payload. Removing an unknown
// id is a no-op, not an error.
func (i *Ingestor) handleRemove(payload []byte) {
	id := decodeTaskID(payload)
	if id == "" {
		metrics.InvalidRecordsDropped.WithLabelValues("push").Inc()
		logging.Warn().Msg("dropping task removal with empty id")
		return
	}

	removed := i.store.Remove(id)
	metrics.EventsIngested.WithLabelValues("removed").Inc()
	if removed && i.notify != nil {
		i.notify.TaskRemoved(id)
	}
}

// decodeTaskID accepts the removal payload as either a JSON string or a
// bare id.
func decodeTaskID(payload []byte) string {
	var id string
	if err := json.Unmarshal(payload, &id); err == nil {
		return strings.TrimSpace(id)
	}
	return strings.TrimSpace(string(payload))
}
