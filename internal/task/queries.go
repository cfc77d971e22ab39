// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

// Read-only projections over the store. Each is recomputed from the live
// contents under the read lock, so callers always observe the state as of
// call time rather than a stale copy from a previous tick.

// HasRunningTasks reports whether any task is currently Running.
func (s *Store) HasRunningTasks() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.Status == StatusRunning {
			return true
		}
	}
	return false
}

// InstancesBootstrapping returns the instance ids of every Running task
// whose data payload carries one. These are the local instances currently
// being created or updated by the installer pipeline.
func (s *Store) InstancesBootstrapping() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, t := range s.tasks {
		if t.Status != StatusRunning {
			continue
		}
		if id := t.Payload().InstanceID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsModpackInstalling reports whether a Running install or update job exists
// for the given modpack.
func (s *Store) IsModpackInstalling(modpackID string) bool {
	if modpackID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.Status != StatusRunning {
			continue
		}
		p := t.Payload()
		if p.ModpackID != modpackID {
			continue
		}
		if p.Type == JobTypeInstanceCreation || p.Type == JobTypeModpackUpdate {
			return true
		}
	}
	return false
}
