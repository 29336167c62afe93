// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

// Group selects which analytics groupings Analyze computes.
type Group uint8

// Analytics groupings.
const (
	GroupCompletion Group = 1 << iota
	GroupEngagement
	GroupOutcomes

	GroupAll = GroupCompletion | GroupEngagement | GroupOutcomes
)

// Request is the caller's view of one analytics query.
type Request struct {
	Range ingest.DateRange
	// CourseID selects the funnel course. Empty or unknown ids select the
	// first published course.
	CourseID string
}

// Engine loads snapshots and computes analytics. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	fetcher *ingest.Fetcher
	cleaner *ingest.Cleaner
	loc     *time.Location
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the timezone for calendar bucketing.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine returns an Engine reading through fetcher and cleaner.
func NewEngine(fetcher *ingest.Fetcher, cleaner *ingest.Cleaner, opts ...Option) *Engine {
	e := &Engine{
		fetcher: fetcher,
		cleaner: cleaner,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the calendar location.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Load fetches and cleans one snapshot for req.
func (e *Engine) Load(ctx context.Context, req Request) (*ingest.Snapshot, error) {
	raw, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return e.cleaner.Clean(raw, req.Range), nil
}

// Completion returns the completion, funnel and popularity grouping.
func (e *Engine) Completion(ctx context.Context, req Request) (*models.CompletionAnalytics, error) {
	res, err := e.run(ctx, req, GroupCompletion)
	if err != nil {
		return nil, err
	}
	return res.Completion, nil
}

// Engagement returns the engagement grouping.
func (e *Engine) Engagement(ctx context.Context, req Request) (*models.EngagementAnalytics, error) {
	res, err := e.run(ctx, req, GroupEngagement)
	if err != nil {
		return nil, err
	}
	return res.Engagement, nil
}

// Outcomes returns the outcome grouping.
func (e *Engine) Outcomes(ctx context.Context, req Request) (*models.OutcomeAnalytics, error) {
	res, err := e.run(ctx, req, GroupOutcomes)
	if err != nil {
		return nil, err
	}
	return res.Outcomes, nil
}

// Summary returns all three groupings computed from a single fetch.
func (e *Engine) Summary(ctx context.Context, req Request) (*models.AnalyticsSummary, error) {
	return e.run(ctx, req, GroupAll)
}

func (e *Engine) run(ctx context.Context, req Request, groups Group) (*models.AnalyticsSummary, error) {
	snap, err := e.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, snap, req, groups)
}

// Analyze computes the selected groupings from snap. Stages run
// concurrently; the only error is context cancellation.
func (e *Engine) Analyze(ctx context.Context, snap *ingest.Snapshot, req Request, groups Group) (*models.AnalyticsSummary, error) {
	began := time.Now()
	now := e.now()
	idx := newIndex(snap)
	res := &models.AnalyticsSummary{}

	g, gctx := errgroup.WithContext(ctx)
	stage := func(name string, fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			fn()
			metrics.RecordStageDuration(name, time.Since(start))
			return nil
		})
	}

	if groups&GroupCompletion != 0 {
		c := &models.CompletionAnalytics{}
		res.Completion = c
		stage("completion", func() {
			c.CompletionBySchool = completionBySchool(idx)
			c.TimeToComplete = timeToComplete(idx)
			c.Courses, c.SelectedCourseID = courseOptions(idx, req.CourseID)
			selected := ""
			if c.SelectedCourseID != nil {
				selected = *c.SelectedCourseID
			}
			c.DropoffFunnel = dropoffFunnel(idx, selected)
		})
		stage("popularity", func() {
			c.CoursePopularity = coursePopularity(idx, now)
		})
	}
	if groups&GroupEngagement != 0 {
		stage("engagement", func() {
			res.Engagement = engagement(idx, now, e.loc)
		})
	}
	if groups&GroupOutcomes != 0 {
		stage("outcomes", func() {
			res.Outcomes = outcomes(gctx, idx, e.loc)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Int("enrollments", len(snap.Enrollments)).
		Int("profiles", len(snap.Profiles)).
		Int("excluded_users", snap.ExcludedUsers).
		Dur("elapsed", time.Since(began)).
		Msg("Analytics computed")
	return res, nil
}
