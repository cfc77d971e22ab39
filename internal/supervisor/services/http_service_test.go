// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// mockServer simulates http.Server's blocking ListenAndServe.
type mockServer struct {
	listenErr  error
	shutdownCh chan struct{}
	shutdowns  atomic.Int32
}

func newMockServer() *mockServer {
	return &mockServer{shutdownCh: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.shutdownCh
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	close(m.shutdownCh)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("expected one Shutdown call, got %d", server.shutdowns.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	server := newMockServer()
	server.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
}

func TestHTTPServerServiceDefaultTimeout(t *testing.T) {
	svc := NewHTTPServerService(newMockServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s default, got %v", svc.shutdownTimeout)
	}
}
