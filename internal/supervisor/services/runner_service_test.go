// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockManager tracks Start/Stop calls and can fail either.
type mockManager struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
	stopErr  error
}

func (m *mockManager) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	return nil
}

func (m *mockManager) Stop() error {
	m.stopped.Store(true)
	return m.stopErr
}

func TestRunnerServiceLifecycle(t *testing.T) {
	manager := &mockManager{}
	svc := NewRunnerService("test-manager", manager)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Wait for Start to happen, then cancel.
	deadline := time.Now().Add(2 * time.Second)
	for !manager.started.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !manager.started.Load() {
		t.Fatal("manager never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if !manager.stopped.Load() {
		t.Error("manager not stopped on shutdown")
	}
}

func TestRunnerServiceStartFailure(t *testing.T) {
	manager := &mockManager{startErr: errors.New("boom")}
	svc := NewRunnerService("test-manager", manager)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, manager.startErr) {
		t.Errorf("expected wrapped start error, got %v", err)
	}
	if manager.stopped.Load() {
		t.Error("Stop called after failed Start")
	}
}

func TestRunnerServiceStopFailure(t *testing.T) {
	manager := &mockManager{stopErr: errors.New("stuck")}
	svc := NewRunnerService("test-manager", manager)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Serve(ctx)
	if err == nil || !errors.Is(err, manager.stopErr) {
		t.Errorf("expected wrapped stop error, got %v", err)
	}
}

func TestRunnerServiceString(t *testing.T) {
	svc := NewRunnerService("task-ingestor", &mockManager{})
	if svc.String() != "task-ingestor" {
		t.Errorf("unexpected name %q", svc.String())
	}
}
