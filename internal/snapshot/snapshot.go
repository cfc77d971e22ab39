// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package snapshot persists the live task view between daemon runs.
//
// Only the current snapshot is stored, never history: the single key is
// overwritten on every successful resync, and whatever was loaded at
// startup is discarded by the first full pull. The point is purely a warm
// start - the UI shows the last-known state instead of an empty list while
// the first pull is in flight.
package snapshot

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/packboard/packboard/internal/task"
)

// liveKey is the single key holding the serialized snapshot.
var liveKey = []byte("tasks/live")

// Store is a badger-backed persisted copy of the live task snapshot.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save overwrites the persisted snapshot with the given tasks.
func (s *Store) Save(tasks []task.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(liveKey, data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot, or nil when none has been saved yet.
func (s *Store) Load() ([]task.Task, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(liveKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// A corrupt snapshot is not worth failing startup over; the first
		// pull replaces it anyway.
		return nil, nil
	}
	return tasks, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
