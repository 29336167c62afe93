// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/cohortlens/internal/analytics"
	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/models"
)

// serveAnalytics runs compute under the request timeout and writes the
// envelope. A failed computation never yields a partial payload.
func serveAnalytics[T any](h *Handler, w http.ResponseWriter, r *http.Request, name string,
	compute func(ctx context.Context, req analytics.Request) (T, error)) {
	start := time.Now()

	req := parseAnalyticsQuery(r).Request(h.engine.Location())

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	data, err := compute(ctx, req)
	if err != nil {
		status, code, message := classifyError(err)
		respondError(w, r, status, code, message, err)
		return
	}

	elapsed := time.Since(start)
	logging.Ctx(r.Context()).Debug().
		Str("grouping", name).
		Str("date_from", req.Range.FromDate()).
		Str("date_to", req.Range.ToDate()).
		Dur("duration", elapsed).
		Msg("Analytics computed")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: elapsed.Milliseconds(),
			DateFrom:    req.Range.FromDate(),
			DateTo:      req.Range.ToDate(),
		},
	})
}

// AnalyticsCompletion returns completion by cohort, time to complete,
// course popularity and the drop-off funnel.
//
// GET /api/v1/analytics/completion?date_from=&date_to=&course_id=
func (h *Handler) AnalyticsCompletion(w http.ResponseWriter, r *http.Request) {
	serveAnalytics(h, w, r, "completion", h.engine.Completion)
}

// AnalyticsEngagement returns recency segmentation, the dormant user list,
// the usage heatmap, cohort engagement and weekly return rates.
//
// GET /api/v1/analytics/engagement?date_from=&date_to=
func (h *Handler) AnalyticsEngagement(w http.ResponseWriter, r *http.Request) {
	serveAnalytics(h, w, r, "engagement", h.engine.Engagement)
}

// AnalyticsOutcomes returns stress trends, planning time, strategy
// implementation, impact cards and data status.
//
// GET /api/v1/analytics/outcomes?date_from=&date_to=
func (h *Handler) AnalyticsOutcomes(w http.ResponseWriter, r *http.Request) {
	serveAnalytics(h, w, r, "outcomes", h.engine.Outcomes)
}

// AnalyticsSummary returns all three groupings computed from one fetch.
//
// GET /api/v1/analytics/summary?date_from=&date_to=&course_id=
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	serveAnalytics(h, w, r, "summary", h.engine.Summary)
}
