// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package reconcile keeps the task snapshot honest. Push delivery is
// best-effort, so the reconciler performs a full pull of the authoritative
// task list on startup and thereafter on an adaptive cadence: tight while
// any job is running, relaxed when idle. Each successful pull replaces the
// store contents wholesale.
//
// A failed pull never touches the snapshot; the last-known-good view is
// retained and the next tick retries at the same fixed cadence.
package reconcile
