// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cohortlens/internal/models"
)

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// It reports the most recent background store probe rather than pinging
// the store itself, so probe traffic never reaches the backend.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := true
	data := map[string]interface{}{
		"uptime": time.Since(h.startTime).Seconds(),
	}

	if h.probe != nil {
		ready = h.probe.Healthy()
		checkedAt, err := h.probe.LastCheck()
		data["store_connected"] = ready
		if !checkedAt.IsZero() {
			data["store_checked_at"] = checkedAt
		}
		if err != nil {
			data["store_error"] = sanitizeLogValue(err.Error())
		}
	}
	data["ready_to_serve"] = ready

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
