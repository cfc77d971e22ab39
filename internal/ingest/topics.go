// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package ingest

// Push-channel topics. The backend job scheduler is the sole producer.
const (
	// TopicTaskCreated carries a full task record when a job starts.
	TopicTaskCreated = "tasks.created"

	// TopicTaskUpdated carries a full task record on every state change.
	TopicTaskUpdated = "tasks.updated"

	// TopicTaskRemoved carries the id of a task dropped by the backend.
	TopicTaskRemoved = "tasks.removed"
)
