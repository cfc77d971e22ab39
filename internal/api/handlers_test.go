// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/packboard/packboard/internal/config"
	"github.com/packboard/packboard/internal/task"
)

type fixedSync struct {
	last time.Time
}

func (f fixedSync) LastSync() time.Time { return f.last }

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            7630,
		Timeout:         5 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   0, // no rate limiting in tests
		RateLimitWindow: time.Minute,
	}
}

func seedStore(t *testing.T) *task.Store {
	t.Helper()
	store := task.NewStore()
	raws := []string{
		`{"id":"t1","label":"Install Alpha","status":"Running","progress":40,"message":"Downloading","data":{"type":"modpack_instance_creation","modpackId":"mp-1","instanceId":"inst-1"}}`,
		`{"id":"t2","label":"Cleanup","status":"Completed","progress":100,"message":"Done"}`,
	}
	for _, raw := range raws {
		rec, err := task.ParseRecord([]byte(raw))
		if err != nil {
			t.Fatalf("ParseRecord failed: %v", err)
		}
		store.Apply(rec)
	}
	return store
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, rec.Body.String())
	}
}

func TestListTasks(t *testing.T) {
	router := NewRouter(NewHandler(seedStore(t), nil, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/api/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var tasks []task.Task
	decodeBody(t, rec, &tasks)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Errorf("tasks not sorted by id: %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestGetTask(t *testing.T) {
	router := NewRouter(NewHandler(seedStore(t), nil, nil), testServerConfig())

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/tasks/t1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got task.Task
		decodeBody(t, rec, &got)
		if got.ID != "t1" || got.Status != task.StatusRunning {
			t.Errorf("unexpected task %+v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/tasks/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTaskSummary(t *testing.T) {
	last := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	router := NewRouter(NewHandler(seedStore(t), fixedSync{last: last}, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/api/tasks/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summary struct {
		Count      int     `json:"count"`
		HasRunning bool    `json:"has_running"`
		Revision   uint64  `json:"revision"`
		LastSync   *string `json:"last_sync"`
	}
	decodeBody(t, rec, &summary)

	if summary.Count != 2 || !summary.HasRunning {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Revision == 0 {
		t.Error("revision missing from summary")
	}
	if summary.LastSync == nil || *summary.LastSync != "2026-08-29T12:00:00Z" {
		t.Errorf("unexpected last_sync %v", summary.LastSync)
	}
}

func TestTaskSummaryWithoutSync(t *testing.T) {
	router := NewRouter(NewHandler(seedStore(t), fixedSync{}, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/api/tasks/summary", "")
	var summary struct {
		LastSync *string `json:"last_sync"`
	}
	decodeBody(t, rec, &summary)
	if summary.LastSync != nil {
		t.Errorf("expected no last_sync before first pull, got %v", *summary.LastSync)
	}
}

func TestDescribeStage(t *testing.T) {
	router := NewRouter(NewHandler(task.NewStore(), nil, nil), testServerConfig())

	t.Run("counted stage", func(t *testing.T) {
		body := `{"stage":{"type":"DownloadingFiles","current":5,"total":10},"fallback":"Working"}`
		rec := doRequest(t, router, http.MethodPost, "/api/stage/describe", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Message string `json:"message"`
			Percent *int   `json:"percent"`
		}
		decodeBody(t, rec, &resp)
		if resp.Message != "Downloading files 5/10 (50%)" {
			t.Errorf("unexpected message %q", resp.Message)
		}
		if resp.Percent == nil || *resp.Percent != 50 {
			t.Errorf("unexpected percent %v", resp.Percent)
		}
	})

	t.Run("unknown stage falls back", func(t *testing.T) {
		body := `{"stage":{"type":"Mystery"},"fallback":"Working"}`
		rec := doRequest(t, router, http.MethodPost, "/api/stage/describe", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Message string `json:"message"`
			Percent *int   `json:"percent"`
		}
		decodeBody(t, rec, &resp)
		if resp.Message != "Working" || resp.Percent != nil {
			t.Errorf("unexpected fallback response %+v", resp)
		}
	})

	t.Run("null stage falls back", func(t *testing.T) {
		body := `{"stage":null,"fallback":"Preparing"}`
		rec := doRequest(t, router, http.MethodPost, "/api/stage/describe", body)
		var resp struct {
			Message string `json:"message"`
		}
		decodeBody(t, rec, &resp)
		if resp.Message != "Preparing" {
			t.Errorf("unexpected message %q", resp.Message)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/stage/describe", `{{{`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestModpackInstalling(t *testing.T) {
	router := NewRouter(NewHandler(seedStore(t), nil, nil), testServerConfig())

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"running install", "mp-1", true},
		{"unknown modpack", "mp-9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, "/api/modpacks/"+tt.id+"/installing", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var resp struct {
				Installing bool `json:"installing"`
			}
			decodeBody(t, rec, &resp)
			if resp.Installing != tt.want {
				t.Errorf("installing=%v, want %v", resp.Installing, tt.want)
			}
		})
	}
}

func TestInstancesBootstrapping(t *testing.T) {
	router := NewRouter(NewHandler(seedStore(t), nil, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/api/instances/bootstrapping", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Bootstrapping bool     `json:"bootstrapping"`
		InstanceIDs   []string `json:"instance_ids"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Bootstrapping {
		t.Error("expected bootstrapping true with a running instance job")
	}
	if len(resp.InstanceIDs) != 1 || resp.InstanceIDs[0] != "inst-1" {
		t.Errorf("unexpected instance ids %v", resp.InstanceIDs)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(NewHandler(task.NewStore(), nil, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(NewHandler(task.NewStore(), nil, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "packboard_") {
		t.Error("metrics output missing packboard_ series")
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	router := NewRouter(NewHandler(task.NewStore(), nil, nil), testServerConfig())

	rec := doRequest(t, router, http.MethodGet, "/ws", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a hub, got %d", rec.Code)
	}
}
