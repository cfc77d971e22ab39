// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/validation"
)

// Record is one raw task delta as received from the wire, before it is
// merged into the store. Pointer fields distinguish "absent" from "zero" so
// the merge can preserve fields the delta does not carry.
//
// Validation rules mirror the backend contract: id, label and message must
// be strings, progress must be numeric, and status must be one of the five
// known states. data and created_at are optional and opaque.
type Record struct {
	ID        *string         `json:"id" validate:"required"`
	Label     *string         `json:"label" validate:"required"`
	Status    *Status         `json:"status" validate:"required,oneof=Pending Running Completed Failed Cancelled"`
	Progress  *float64        `json:"progress" validate:"required"`
	Message   *string         `json:"message" validate:"required"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt *string         `json:"created_at,omitempty"`
}

// ParseRecord decodes and validates one raw task record. It never panics on
// malformed input; any decode or validation failure is returned as an error
// so callers can drop the record without aborting the surrounding batch.
func ParseRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode task record: %w", err)
	}
	if verr := validation.ValidateStruct(&rec); verr != nil {
		return Record{}, fmt.Errorf("invalid task record: %w", verr)
	}
	return rec, nil
}

// ParseRecords decodes and validates a batch of raw records independently.
// Invalid elements are dropped with a logged warning and counted; a bad
// record never fails the batch.
func ParseRecords(raws []json.RawMessage) (records []Record, dropped int) {
	records = make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := ParseRecord(raw)
		if err != nil {
			dropped++
			logging.Warn().Err(err).Msg("dropping invalid task record")
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// Task materializes the record as a stored task, clamping progress.
func (r Record) Task() Task {
	t := Task{
		ID:       *r.ID,
		Label:    *r.Label,
		Status:   *r.Status,
		Progress: clampProgress(int(math.Round(*r.Progress))),
		Message:  *r.Message,
		Data:     r.Data,
	}
	if r.CreatedAt != nil {
		t.CreatedAt = *r.CreatedAt
	}
	return t
}

// mergeInto overlays the record onto an existing task. The five required
// fields always overwrite; data and created_at only overwrite when the
// delta carries them.
func (r Record) mergeInto(existing Task) Task {
	merged := existing
	merged.Label = *r.Label
	merged.Status = *r.Status
	merged.Progress = clampProgress(int(math.Round(*r.Progress)))
	merged.Message = *r.Message
	if len(r.Data) > 0 {
		merged.Data = r.Data
	}
	if r.CreatedAt != nil {
		merged.CreatedAt = *r.CreatedAt
	}
	return merged
}
