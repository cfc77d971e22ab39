// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

import (
	"github.com/goccy/go-json"
)

// Status is the lifecycle state of a backend job.
type Status string

// The five backend job states. The backend emits these strings verbatim on
// the wire; anything else fails record validation.
const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the five known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the job has finished (successfully or not).
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job type tags carried in a task's data payload. Only the install/update
// kinds participate in "is this modpack installing" queries.
const (
	JobTypeInstanceCreation = "modpack_instance_creation"
	JobTypeModpackUpdate    = "modpack_update"
)

// Task is a unit of backend-tracked asynchronous work as held in the local
// snapshot. Progress is always within [0,100] once stored.
type Task struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// Payload is the decoded view of a task's opaque data object. Only the
// correlation keys the launcher cares about are surfaced; unknown fields
// stay untouched in Task.Data.
type Payload struct {
	Type       string `json:"type"`
	ModpackID  string `json:"modpackId"`
	InstanceID string `json:"instanceId"`
}

// Payload decodes the correlation keys from the task's data object.
// A missing or malformed data object yields the zero Payload; the data
// payload is opaque by contract, so decode failures are not errors.
func (t Task) Payload() Payload {
	var p Payload
	if len(t.Data) == 0 {
		return p
	}
	if err := json.Unmarshal(t.Data, &p); err != nil {
		return Payload{}
	}
	return p
}

// IsInstallJob reports whether the task represents creating or updating a
// modpack instance.
func (t Task) IsInstallJob() bool {
	switch t.Payload().Type {
	case JobTypeInstanceCreation, JobTypeModpackUpdate:
		return true
	}
	return false
}

// clampProgress bounds p into [0,100].
func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
