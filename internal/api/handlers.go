// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cohortlens/internal/analytics"
	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/models"
)

// defaultRequestTimeout applies when analytics.request_timeout is unset.
const defaultRequestTimeout = 30 * time.Second

// Analyzer is the part of *analytics.Engine the handlers use.
type Analyzer interface {
	Completion(ctx context.Context, req analytics.Request) (*models.CompletionAnalytics, error)
	Engagement(ctx context.Context, req analytics.Request) (*models.EngagementAnalytics, error)
	Outcomes(ctx context.Context, req analytics.Request) (*models.OutcomeAnalytics, error)
	Summary(ctx context.Context, req analytics.Request) (*models.AnalyticsSummary, error)
	Location() *time.Location
}

// StoreProbe reports the outcome of the most recent store health check.
type StoreProbe interface {
	Healthy() bool
	LastCheck() (at time.Time, err error)
}

// Handler serves the analytics and health endpoints.
//
// Handler methods are split across files:
//   - handlers_analytics.go: completion, engagement, outcomes, summary
//   - handlers_health.go: liveness and readiness probes
//   - handlers_helpers.go: response writing
type Handler struct {
	engine         Analyzer
	probe          StoreProbe
	requestTimeout time.Duration
	startTime      time.Time
}

// NewHandler creates a handler over engine. probe may be nil, in which case
// readiness only reflects that the process is serving.
func NewHandler(engine Analyzer, probe StoreProbe, cfg *config.AnalyticsConfig) *Handler {
	timeout := defaultRequestTimeout
	if cfg != nil && cfg.RequestTimeout > 0 {
		timeout = cfg.RequestTimeout
	}
	return &Handler{
		engine:         engine,
		probe:          probe,
		requestTimeout: timeout,
		startTime:      time.Now(),
	}
}
