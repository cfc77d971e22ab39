// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package task

import (
	"testing"
)

func TestParseStage(t *testing.T) {
	t.Run("counted variants", func(t *testing.T) {
		tests := []struct {
			typ  string
			want Stage
		}{
			{"DownloadingFiles", DownloadingFiles{Current: 5, Total: 10}},
			{"ExtractingLibraries", ExtractingLibraries{Current: 5, Total: 10}},
			{"ValidatingAssets", ValidatingAssets{Current: 5, Total: 10}},
			{"DownloadingForgeLibraries", DownloadingForgeLibraries{Current: 5, Total: 10}},
		}
		for _, tt := range tests {
			t.Run(tt.typ, func(t *testing.T) {
				raw := []byte(`{"type":"` + tt.typ + `","current":5,"total":10}`)
				st, err := ParseStage(raw)
				if err != nil {
					t.Fatalf("ParseStage failed: %v", err)
				}
				if st != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, st)
				}
			})
		}
	})

	t.Run("installing forge", func(t *testing.T) {
		st, err := ParseStage([]byte(`{"type":"InstallingForge"}`))
		if err != nil {
			t.Fatalf("ParseStage failed: %v", err)
		}
		if _, ok := st.(InstallingForge); !ok {
			t.Errorf("expected InstallingForge, got %T", st)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			raw  string
		}{
			{"empty", ""},
			{"unknown type", `{"type":"Mystery","current":1,"total":2}`},
			{"missing type", `{"current":1,"total":2}`},
			{"malformed", `{{{`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := ParseStage([]byte(tt.raw)); err == nil {
					t.Error("expected error, got nil")
				}
			})
		}
	})
}

func TestDescribe(t *testing.T) {
	t.Run("counted stage formats message and percent", func(t *testing.T) {
		msg, pct := Describe(DownloadingFiles{Current: 5, Total: 10}, "fallback")
		if msg != "Downloading files 5/10 (50%)" {
			t.Errorf("unexpected message %q", msg)
		}
		if pct == nil || *pct != 50 {
			t.Errorf("expected percent 50, got %v", pct)
		}
	})

	t.Run("verbs per variant", func(t *testing.T) {
		tests := []struct {
			st   Stage
			want string
		}{
			{ExtractingLibraries{Current: 1, Total: 4}, "Extracting libraries 1/4 (25%)"},
			{ValidatingAssets{Current: 3, Total: 4}, "Validating assets 3/4 (75%)"},
			{DownloadingForgeLibraries{Current: 2, Total: 3}, "Downloading Forge libraries 2/3 (67%)"},
		}
		for _, tt := range tests {
			msg, _ := Describe(tt.st, "fallback")
			if msg != tt.want {
				t.Errorf("expected %q, got %q", tt.want, msg)
			}
		}
	})

	t.Run("zero total reports zero percent", func(t *testing.T) {
		msg, pct := Describe(ValidatingAssets{Current: 3, Total: 0}, "fallback")
		if msg != "Validating assets 3/0 (0%)" {
			t.Errorf("unexpected message %q", msg)
		}
		if pct == nil || *pct != 0 {
			t.Errorf("expected percent 0, got %v", pct)
		}
	})

	t.Run("installing forge has no percent", func(t *testing.T) {
		msg, pct := Describe(InstallingForge{}, "fallback")
		if msg != "Installing Forge..." {
			t.Errorf("unexpected message %q", msg)
		}
		if pct != nil {
			t.Errorf("expected nil percent, got %d", *pct)
		}
	})

	t.Run("nil stage falls back", func(t *testing.T) {
		msg, pct := Describe(nil, "Preparing install")
		if msg != "Preparing install" {
			t.Errorf("expected fallback message, got %q", msg)
		}
		if pct != nil {
			t.Errorf("expected nil percent, got %d", *pct)
		}
	})
}
