// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Stage is the sub-phase of an install job as emitted by the installer
// pipeline. It is a closed sum type: the compiler flags any Describe branch
// that misses a variant. Stages are decoded on demand for presentation and
// never stored in the task store.
type Stage interface {
	stage()
}

// DownloadingFiles is the counted modpack file download phase.
type DownloadingFiles struct {
	Current int
	Total   int
}

// ExtractingLibraries is the counted library extraction phase.
type ExtractingLibraries struct {
	Current int
	Total   int
}

// ValidatingAssets is the counted asset validation phase.
type ValidatingAssets struct {
	Current int
	Total   int
}

// DownloadingForgeLibraries is the counted Forge library download phase.
type DownloadingForgeLibraries struct {
	Current int
	Total   int
}

// InstallingForge is the indeterminate Forge installer phase.
type InstallingForge struct{}

func (DownloadingFiles) stage()          {}
func (ExtractingLibraries) stage()       {}
func (ValidatingAssets) stage()          {}
func (DownloadingForgeLibraries) stage() {}
func (InstallingForge) stage()           {}

// stageEnvelope is the tagged wire form of a stage payload.
type stageEnvelope struct {
	Type    string `json:"type"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// ParseStage decodes a tagged stage payload. Empty input and unknown tags
// return a nil Stage and an error; callers treat that as "no stage" and fall
// back to the task's own message.
func ParseStage(raw []byte) (Stage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty stage payload")
	}

	var env stageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode stage payload: %w", err)
	}

	switch env.Type {
	case "DownloadingFiles":
		return DownloadingFiles{Current: env.Current, Total: env.Total}, nil
	case "ExtractingLibraries":
		return ExtractingLibraries{Current: env.Current, Total: env.Total}, nil
	case "ValidatingAssets":
		return ValidatingAssets{Current: env.Current, Total: env.Total}, nil
	case "DownloadingForgeLibraries":
		return DownloadingForgeLibraries{Current: env.Current, Total: env.Total}, nil
	case "InstallingForge":
		return InstallingForge{}, nil
	default:
		return nil, fmt.Errorf("unknown stage type %q", env.Type)
	}
}

// Describe maps a stage to a human message and an optional completion
// percentage. Counted phases report round(100*current/total), defined as 0
// when total is 0. InstallingForge has no percentage. A nil stage yields the
// fallback message and no percentage. Pure and side-effect free.
func Describe(st Stage, fallback string) (string, *int) {
	switch v := st.(type) {
	case DownloadingFiles:
		return counted("Downloading files", v.Current, v.Total)
	case ExtractingLibraries:
		return counted("Extracting libraries", v.Current, v.Total)
	case ValidatingAssets:
		return counted("Validating assets", v.Current, v.Total)
	case DownloadingForgeLibraries:
		return counted("Downloading Forge libraries", v.Current, v.Total)
	case InstallingForge:
		return "Installing Forge...", nil
	default:
		return fallback, nil
	}
}

func counted(verb string, current, total int) (string, *int) {
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(current) / float64(total) * 100))
	}
	return fmt.Sprintf("%s %d/%d (%d%%)", verb, current, total, percent), &percent
}
