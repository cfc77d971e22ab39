// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package validation

import (
	"strings"
	"testing"
)

type sampleRecord struct {
	ID     *string `validate:"required"`
	Status *string `validate:"required,oneof=Pending Running"`
	Count  int     `validate:"min=0,max=100"`
}

func strPtr(s string) *string { return &s }

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rec := sampleRecord{ID: strPtr("a"), Status: strPtr("Running"), Count: 50}
		if err := ValidateStruct(&rec); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		rec := sampleRecord{}
		err := ValidateStruct(&rec)
		if err == nil {
			t.Fatal("expected error")
		}
		if len(err.Fields()) != 2 {
			t.Errorf("expected 2 field errors, got %d", len(err.Fields()))
		}
		if !strings.Contains(err.Error(), "ID is required") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("oneof violation", func(t *testing.T) {
		rec := sampleRecord{ID: strPtr("a"), Status: strPtr("Exploded")}
		err := ValidateStruct(&rec)
		if err == nil {
			t.Fatal("expected error")
		}
		fe := err.Fields()[0]
		if fe.Field() != "Status" || fe.Tag() != "oneof" {
			t.Errorf("unexpected field error %s/%s", fe.Field(), fe.Tag())
		}
		if !strings.Contains(fe.Error(), "must be one of") {
			t.Errorf("unexpected message %q", fe.Error())
		}
	})

	t.Run("range violation", func(t *testing.T) {
		rec := sampleRecord{ID: strPtr("a"), Status: strPtr("Pending"), Count: 150}
		err := ValidateStruct(&rec)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "Count must be at most 100") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("shared instance", func(t *testing.T) {
		if Validator() != Validator() {
			t.Error("Validator() returned different instances")
		}
	})
}
