// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package ingest

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/packboard/packboard/internal/logging"
)

// wmLogger adapts watermill's LoggerAdapter to the global zerolog logger so
// subscriber internals log in the daemon's format.
type wmLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger returns a watermill.LoggerAdapter backed by the global
// zerolog logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &wmLogger{logger: logging.With().Str("component", "watermill").Logger()}
}

func (l *wmLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *wmLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l *wmLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l *wmLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), fields).Msg(msg)
}

func (l *wmLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	child := l.logger.With()
	for k, v := range fields {
		child = child.Interface(k, v)
	}
	return &wmLogger{logger: child.Logger()}
}

func (l *wmLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
