// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package services adapts the daemon's components to suture.Service so they
// can run under the supervisor tree. Each wrapper owns only lifecycle
// translation; the wrapped components keep their own goroutine management.
package services
