// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

import (
	"sort"
	"sync"

	"github.com/packboard/packboard/internal/metrics"
)

// Store is the authoritative in-memory snapshot of all known tasks.
//
// Exactly two writers mutate it - the push-channel ingestor and the
// reconciler - from independent goroutines, so every mutation is serialized
// behind the mutex. Readers (query projections, API handlers) take the read
// lock and always see the state as of call time.
//
// The revision counter increments on every mutation. It gives change
// notifications a total order even though individual tasks carry no server
// version; a push update racing a full resync still resolves as
// last-write-wins, which is the accepted staleness window.
type Store struct {
	mu       sync.RWMutex
	tasks    map[string]Task
	revision uint64
}

// NewStore creates an empty task store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]Task)}
}

// Apply inserts the record as a new task or shallow-merges it onto the
// existing task with the same id. Fields absent from the delta (data,
// created_at) are preserved on merge. Progress is clamped to [0,100]
// before storage. Returns the task as stored.
func (s *Store) Apply(rec Record) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := *rec.ID
	var t Task
	if existing, ok := s.tasks[id]; ok {
		t = rec.mergeInto(existing)
	} else {
		t = rec.Task()
	}
	s.tasks[id] = t
	s.revision++
	s.refreshGauges()
	return t
}

// Remove deletes the task with the given id. No-op if absent; returns
// whether a task was removed. A later create with the same id re-inserts it.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	s.revision++
	s.refreshGauges()
	return true
}

// ReplaceAll swaps the entire store contents for the given records. Any task
// id present before but absent from the new set is dropped; this is the
// correctness backstop against lost push events. Returns the new task count.
func (s *Store) ReplaceAll(records []Record) int {
	next := make(map[string]Task, len(records))
	for _, rec := range records {
		next[*rec.ID] = rec.Task()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = next
	s.revision++
	s.refreshGauges()
	return len(next)
}

// Seed loads previously stored tasks wholesale, clamping progress. Used to
// warm-start from the persisted snapshot before the first pull; the first
// successful ReplaceAll discards it.
func (s *Store) Seed(tasks []Task) {
	next := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		if t.ID == "" || !t.Status.Valid() {
			continue
		}
		t.Progress = clampProgress(t.Progress)
		next[t.ID] = t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = next
	s.revision++
	s.refreshGauges()
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// List returns all tasks sorted by id.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tasks in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Revision returns the store's monotonic mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// refreshGauges updates snapshot gauges. Caller must hold the write lock.
func (s *Store) refreshGauges() {
	running := 0
	for _, t := range s.tasks {
		if t.Status == StatusRunning {
			running++
		}
	}
	metrics.TasksTracked.Set(float64(len(s.tasks)))
	metrics.RunningTasks.Set(float64(running))
}
