// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("task_id", "t1").Msg("task updated")

	out := buf.String()
	if !strings.Contains(out, `"task_id":"t1"`) {
		t.Errorf("structured field missing from output: %s", out)
	}
	if !strings.Contains(out, `"message":"task updated"`) {
		t.Errorf("message missing from output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("hidden")
	Info().Msg("hidden too")
	Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("suppressed levels leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn output missing: %s", out)
	}
}

func TestErrAttachesError(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Err(errors.New("backend down")).Msg("pull failed")

	if !strings.Contains(buf.String(), "backend down") {
		t.Errorf("error not attached: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewTestLogger(&buf))
	Info().Msg("through replacement")

	if !strings.Contains(buf.String(), "through replacement") {
		t.Errorf("replaced logger not used: %s", buf.String())
	}
}
