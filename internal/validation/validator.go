// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package validation provides struct validation using go-playground/validator v10.
//
// A single shared validator instance is used so struct metadata is parsed and
// cached once. Callers declare rules with `validate` tags and get back a
// typed error that lists every failing field:
//
//	type record struct {
//	    ID     *string `validate:"required"`
//	    Status *string `validate:"required,oneof=Pending Running"`
//	}
//
//	if err := validation.ValidateStruct(&rec); err != nil {
//	    for _, fe := range err.Fields() { ... }
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the struct field name that failed validation.
func (e FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e FieldError) Tag() string { return e.tag }

// Param returns the parameter of the failed tag (e.g. "100" for "max=100").
func (e FieldError) Param() string { return e.param }

// Error returns a human-readable message for the field.
func (e FieldError) Error() string { return e.message }

// StructError is the collected result of validating one struct.
type StructError struct {
	fields []FieldError
}

// Fields returns the individual field errors.
func (e *StructError) Fields() []FieldError { return e.fields }

// Error implements the error interface with all field messages joined.
func (e *StructError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.fields))
	for i, fe := range e.fields {
		msgs[i] = fe.message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator instance. Thread-safe.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s against its `validate` tags. Returns nil on
// success or a *StructError listing every failing field. It never panics on
// malformed input; non-struct values surface as a single synthetic error.
func ValidateStruct(s interface{}) *StructError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &StructError{fields: []FieldError{{
			field:   "unknown",
			tag:     "unknown",
			message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translate(fe),
		}
	}
	return &StructError{fields: fields}
}

// translate converts a validator.FieldError to a readable message.
func translate(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
