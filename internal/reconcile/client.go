// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/metrics"
)

// Client fetches the authoritative full task list from the backend.
type Client interface {
	GetAllTasks(ctx context.Context) ([]json.RawMessage, error)
}

// ClientConfig holds backend connection settings for the pull query.
type ClientConfig struct {
	// URL is the backend base URL, e.g. http://127.0.0.1:8090.
	URL string

	// Token is an optional bearer token for the tasks endpoint.
	Token string

	// Timeout bounds a single pull request.
	Timeout time.Duration
}

// BackendClient implements Client over the backend REST API, with a circuit
// breaker and a rate limiter so resync retries cannot hammer a flapping
// backend. The breaker uses real time for its recovery windows; tests mock
// the Client interface instead of racing the breaker.
type BackendClient struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]json.RawMessage]
	limiter *rate.Limiter
	name    string
}

// NewBackendClient creates a tasks client for the given backend.
func NewBackendClient(cfg ClientConfig) *BackendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	name := "backend-tasks"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]json.RawMessage](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &BackendClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		name:    name,
	}
}

// GetAllTasks pulls the full authoritative task snapshot. The elements are
// returned raw; validation happens record by record on the caller's side so
// one malformed task cannot fail the batch.
func (c *BackendClient) GetAllTasks(ctx context.Context) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	raws, err := c.cb.Execute(func() ([]json.RawMessage, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, outcome).Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	return raws, nil
}

func (c *BackendClient) fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks", nil)
	if err != nil {
		return nil, fmt.Errorf("build tasks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch tasks: unexpected status %d", resp.StatusCode)
	}

	var raws []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode tasks response: %w", err)
	}
	return raws, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
