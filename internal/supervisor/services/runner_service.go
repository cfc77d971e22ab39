// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle shared by the ingestor and the
// reconciler: Start spawns internal goroutines and returns, Stop blocks
// until they finish.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// RunnerService adapts a Start/Stop manager to suture's Serve pattern.
type RunnerService struct {
	manager StartStopManager
	name    string
}

// NewRunnerService wraps manager as a supervised service named name.
func NewRunnerService(name string, manager StartStopManager) *RunnerService {
	return &RunnerService{manager: manager, name: name}
}

// Serve implements suture.Service: start the manager, wait for cancellation,
// stop it. A Start failure is returned so suture applies its backoff policy.
func (s *RunnerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String identifies the service in supervision logs.
func (s *RunnerService) String() string {
	return s.name
}
