// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
	"github.com/tomtom215/cohortlens/internal/store"
)

// ErrFetch wraps every record store failure surfaced by Fetch.
var ErrFetch = errors.New("record fetch failed")

// Default fetch bounds.
const (
	DefaultFetchLimit       = 10000
	DefaultFetchConcurrency = 6
)

// RawSnapshot holds the uncleaned rows of one request.
type RawSnapshot struct {
	Enrollments     []models.Enrollment
	Courses         []models.Course
	Modules         []models.Module
	Lessons         []models.Lesson
	LessonProgress  []models.LessonProgress
	Profiles        []models.Profile
	SurveyResponses []models.SurveyResponse
	MetricSnapshots []models.MetricSnapshot
	Organizations   []models.Organization
	Partnerships    []models.Partnership
	// Emails maps user id to email address.
	Emails map[string]string
}

// Fetcher loads a RawSnapshot from a record store and identity directory.
type Fetcher struct {
	records     store.RecordStore
	identities  store.IdentityDirectory
	limit       int
	concurrency int
}

// NewFetcher returns a Fetcher. Non-positive limit or concurrency select the
// defaults.
func NewFetcher(records store.RecordStore, identities store.IdentityDirectory, limit, concurrency int) *Fetcher {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	return &Fetcher{records: records, identities: identities, limit: limit, concurrency: concurrency}
}

// Fetch issues every entity fetch concurrently and waits for all of them.
// The first failure cancels the rest and is returned wrapped in ErrFetch.
// Each fetch is capped at the configured limit; time-stamped entities are
// ordered newest first so a capped fetch keeps the most recent rows.
func (f *Fetcher) Fetch(ctx context.Context) (*RawSnapshot, error) {
	start := time.Now()
	raw := &RawSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	base := store.Query{Limit: f.limit}
	spawn(g, gctx, f.limit, store.EntityEnrollments, &raw.Enrollments, func(ctx context.Context) ([]models.Enrollment, error) {
		return f.records.Enrollments(ctx, base.Order("created_at", true))
	})
	spawn(g, gctx, f.limit, store.EntityCourses, &raw.Courses, func(ctx context.Context) ([]models.Course, error) {
		return f.records.Courses(ctx, base.Order("title", false))
	})
	spawn(g, gctx, f.limit, store.EntityModules, &raw.Modules, func(ctx context.Context) ([]models.Module, error) {
		return f.records.Modules(ctx, base.Order("order_index", false))
	})
	spawn(g, gctx, f.limit, store.EntityLessons, &raw.Lessons, func(ctx context.Context) ([]models.Lesson, error) {
		return f.records.Lessons(ctx, base.Order("order_index", false))
	})
	spawn(g, gctx, f.limit, store.EntityLessonProgress, &raw.LessonProgress, func(ctx context.Context) ([]models.LessonProgress, error) {
		return f.records.LessonProgress(ctx, base.Order("completed_at", true))
	})
	spawn(g, gctx, f.limit, store.EntityProfiles, &raw.Profiles, func(ctx context.Context) ([]models.Profile, error) {
		return f.records.Profiles(ctx, base)
	})
	spawn(g, gctx, f.limit, store.EntitySurveyResponses, &raw.SurveyResponses, func(ctx context.Context) ([]models.SurveyResponse, error) {
		return f.records.SurveyResponses(ctx, base.Order("submitted_at", true))
	})
	spawn(g, gctx, f.limit, store.EntityMetricSnapshots, &raw.MetricSnapshots, func(ctx context.Context) ([]models.MetricSnapshot, error) {
		return f.records.MetricSnapshots(ctx, base.Order("snapshot_date", true))
	})
	spawn(g, gctx, f.limit, store.EntityOrganizations, &raw.Organizations, func(ctx context.Context) ([]models.Organization, error) {
		return f.records.Organizations(ctx, base)
	})
	spawn(g, gctx, f.limit, store.EntityPartnerships, &raw.Partnerships, func(ctx context.Context) ([]models.Partnership, error) {
		return f.records.Partnerships(ctx, base)
	})
	g.Go(func() error {
		emails, err := f.identities.Emails(gctx, f.limit)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFetch, store.EntityIdentities, err)
		}
		if len(emails) >= f.limit {
			warnCapped(gctx, store.EntityIdentities, f.limit)
		}
		raw.Emails = emails
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.RecordStageDuration("fetch", time.Since(start))
	return raw, nil
}

// spawn schedules one entity fetch writing into dst.
func spawn[T any](g *errgroup.Group, ctx context.Context, limit int, entity store.Entity, dst *[]T,
	fetch func(context.Context) ([]T, error)) {
	g.Go(func() error {
		rows, err := fetch(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFetch, entity, err)
		}
		if len(rows) >= limit {
			warnCapped(ctx, entity, limit)
		}
		*dst = rows
		return nil
	})
}

func warnCapped(ctx context.Context, entity store.Entity, limit int) {
	metrics.StoreFetchCapped.WithLabelValues(string(entity)).Inc()
	logging.Ctx(ctx).Warn().Str("entity", string(entity)).Int("limit", limit).
		Msg("Fetch hit the row cap; aggregates cover a sample")
}
