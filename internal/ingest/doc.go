// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package ingest consumes the push channel of task lifecycle events and
// feeds them into the task store.
//
// The channel carries three event kinds on separate topics: tasks.created
// and tasks.updated (a raw task record each) and tasks.removed (a task id).
// Delivery is best-effort; the reconciler's periodic full pull is the
// correctness backstop, so the ingestor never retries or blocks on a bad
// message - it logs, drops, and moves on.
//
// Production wiring subscribes through watermill-nats (JetStream); tests use
// watermill's in-memory gochannel Pub/Sub against the same
// message.Subscriber interface.
package ingest
