// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package task holds the local view of backend jobs: the task model and its
// wire-record validation, the in-memory snapshot store with merge/replace
// semantics, read-only query projections, and the installation stage
// decoder.
//
// Two independent update paths write into the store - push events from the
// ingestor and full pulls from the reconciler - with no ordering guarantee
// between them. The store is the single serialization point for both; see
// Store for the concurrency contract.
package task
