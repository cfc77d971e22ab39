// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/task"
	"github.com/packboard/packboard/internal/websocket"
)

// SyncInfo reports when the snapshot was last replaced by a full pull.
type SyncInfo interface {
	LastSync() time.Time
}

// Handler serves the read-only task API consumed by the launcher UI.
type Handler struct {
	store *task.Store
	sync  SyncInfo
	hub   *websocket.Hub
}

// NewHandler creates the API handler. sync and hub may be nil (poll-only or
// headless runs); the corresponding fields degrade gracefully.
func NewHandler(store *task.Store, sync SyncInfo, hub *websocket.Hub) *Handler {
	return &Handler{store: store, sync: sync, hub: hub}
}

// summaryResponse is the GET /api/tasks/summary payload.
type summaryResponse struct {
	Count      int     `json:"count"`
	HasRunning bool    `json:"has_running"`
	Revision   uint64  `json:"revision"`
	LastSync   *string `json:"last_sync,omitempty"`
}

// stageRequest is the POST /api/stage/describe body: the raw stage value as
// published by the installer, plus the task message to fall back on.
type stageRequest struct {
	Stage    json.RawMessage `json:"stage"`
	Fallback string          `json:"fallback"`
}

// stageResponse is the decoded human-readable stage.
type stageResponse struct {
	Message string `json:"message"`
	Percent *int   `json:"percent,omitempty"`
}

type installingResponse struct {
	ModpackID  string `json:"modpack_id"`
	Installing bool   `json:"installing"`
}

type bootstrappingResponse struct {
	Bootstrapping bool     `json:"bootstrapping"`
	InstanceIDs   []string `json:"instance_ids"`
}

// ListTasks returns every tracked task, sorted by id.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// GetTask returns a single task by id.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := h.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// TaskSummary returns the aggregate view the UI polls for its status bar.
func (h *Handler) TaskSummary(w http.ResponseWriter, r *http.Request) {
	resp := summaryResponse{
		Count:      h.store.Count(),
		HasRunning: h.store.HasRunningTasks(),
		Revision:   h.store.Revision(),
	}
	if h.sync != nil {
		if last := h.sync.LastSync(); !last.IsZero() {
			formatted := last.UTC().Format(time.RFC3339)
			resp.LastSync = &formatted
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// DescribeStage decodes an installer stage value into a display message and
// optional percentage. Unknown or malformed stages fall back to the given
// message rather than erroring; the UI must always have something to show.
func (h *Handler) DescribeStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := stageResponse{Message: req.Fallback}
	if st, err := task.ParseStage(req.Stage); err == nil {
		resp.Message, resp.Percent = task.Describe(st, req.Fallback)
	}
	respondJSON(w, http.StatusOK, resp)
}

// ModpackInstalling reports whether an install or update job is running for
// the given modpack.
func (h *Handler) ModpackInstalling(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, installingResponse{
		ModpackID:  id,
		Installing: h.store.IsModpackInstalling(id),
	})
}

// InstancesBootstrapping lists the instances still being set up.
func (h *Handler) InstancesBootstrapping(w http.ResponseWriter, r *http.Request) {
	ids := h.store.InstancesBootstrapping()
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, bootstrappingResponse{
		Bootstrapping: len(ids) > 0,
		InstanceIDs:   ids,
	})
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket hub not running")
		return
	}
	websocket.ServeWS(h.hub, w, r)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("failed to encode API response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
