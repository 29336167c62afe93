// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

// BreakerSettings tunes the circuit breaker around a backend.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings opens after >= 60% failures over at least 10
// requests and probes again after two minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerStore wraps a Backend with a circuit breaker and fetch metrics.
// While the circuit is open every call fails fast with an error for which
// IsUnavailable reports true.
type BreakerStore struct {
	inner Backend
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerStore wraps inner using settings.
func NewBreakerStore(inner Backend, settings BreakerSettings) *BreakerStore {
	name := "record-store-" + inner.Driver()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= settings.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).Msg("Opening record store circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		// Configuration gaps and caller cancellation say nothing about
		// backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotConfigured) ||
				errors.Is(err, context.Canceled) || errors.Is(err, ErrUnknownColumn)
		},
	})

	return &BreakerStore{inner: inner, cb: cb, name: name}
}

// IsUnavailable reports whether err came from an open (or saturated
// half-open) circuit.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// State returns the current breaker state name.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if IsUnavailable(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// guarded runs one entity fetch through the breaker and records it.
func guarded[T any](b *BreakerStore, entity Entity, fetch func() ([]T, error)) ([]T, error) {
	start := time.Now()
	result, err := b.execute(func() (any, error) {
		return fetch()
	})
	var rows []T
	if err == nil {
		typed, ok := result.([]T)
		if !ok && result != nil {
			err = fmt.Errorf("circuit breaker: unexpected result type %T", result)
		}
		rows = typed
	}
	metrics.RecordStoreFetch(b.inner.Driver(), string(entity), len(rows), time.Since(start), err)
	return rows, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Driver implements RecordStore.
func (b *BreakerStore) Driver() string { return b.inner.Driver() }

// Close implements RecordStore.
func (b *BreakerStore) Close() error { return b.inner.Close() }

// Ping bypasses the breaker so that health probes see the backend itself.
func (b *BreakerStore) Ping(ctx context.Context) error { return b.inner.Ping(ctx) }

// Enrollments implements RecordStore.
func (b *BreakerStore) Enrollments(ctx context.Context, q Query) ([]models.Enrollment, error) {
	return guarded(b, EntityEnrollments, func() ([]models.Enrollment, error) { return b.inner.Enrollments(ctx, q) })
}

// Courses implements RecordStore.
func (b *BreakerStore) Courses(ctx context.Context, q Query) ([]models.Course, error) {
	return guarded(b, EntityCourses, func() ([]models.Course, error) { return b.inner.Courses(ctx, q) })
}

// Modules implements RecordStore.
func (b *BreakerStore) Modules(ctx context.Context, q Query) ([]models.Module, error) {
	return guarded(b, EntityModules, func() ([]models.Module, error) { return b.inner.Modules(ctx, q) })
}

// Lessons implements RecordStore.
func (b *BreakerStore) Lessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	return guarded(b, EntityLessons, func() ([]models.Lesson, error) { return b.inner.Lessons(ctx, q) })
}

// LessonProgress implements RecordStore.
func (b *BreakerStore) LessonProgress(ctx context.Context, q Query) ([]models.LessonProgress, error) {
	return guarded(b, EntityLessonProgress, func() ([]models.LessonProgress, error) { return b.inner.LessonProgress(ctx, q) })
}

// Profiles implements RecordStore.
func (b *BreakerStore) Profiles(ctx context.Context, q Query) ([]models.Profile, error) {
	return guarded(b, EntityProfiles, func() ([]models.Profile, error) { return b.inner.Profiles(ctx, q) })
}

// SurveyResponses implements RecordStore.
func (b *BreakerStore) SurveyResponses(ctx context.Context, q Query) ([]models.SurveyResponse, error) {
	return guarded(b, EntitySurveyResponses, func() ([]models.SurveyResponse, error) { return b.inner.SurveyResponses(ctx, q) })
}

// MetricSnapshots implements RecordStore.
func (b *BreakerStore) MetricSnapshots(ctx context.Context, q Query) ([]models.MetricSnapshot, error) {
	return guarded(b, EntityMetricSnapshots, func() ([]models.MetricSnapshot, error) { return b.inner.MetricSnapshots(ctx, q) })
}

// Organizations implements RecordStore.
func (b *BreakerStore) Organizations(ctx context.Context, q Query) ([]models.Organization, error) {
	return guarded(b, EntityOrganizations, func() ([]models.Organization, error) { return b.inner.Organizations(ctx, q) })
}

// Partnerships implements RecordStore.
func (b *BreakerStore) Partnerships(ctx context.Context, q Query) ([]models.Partnership, error) {
	return guarded(b, EntityPartnerships, func() ([]models.Partnership, error) { return b.inner.Partnerships(ctx, q) })
}

// Emails implements IdentityDirectory.
func (b *BreakerStore) Emails(ctx context.Context, limit int) (map[string]string, error) {
	start := time.Now()
	result, err := b.execute(func() (any, error) {
		return b.inner.Emails(ctx, limit)
	})
	var emails map[string]string
	if err == nil {
		emails, _ = result.(map[string]string)
	}
	metrics.RecordStoreFetch(b.inner.Driver(), string(EntityIdentities), len(emails), time.Since(start), err)
	return emails, err
}

// Open builds the configured backend wrapped in a BreakerStore.
func Open(cfg *config.StoreConfig) (*BreakerStore, error) {
	var (
		inner Backend
		err   error
	)
	switch cfg.Driver {
	case config.DriverPostgREST:
		inner = NewPostgRESTStore(cfg)
	case config.DriverPostgres:
		inner, err = OpenPostgres(cfg)
	case config.DriverDuckDB:
		inner, err = OpenDuckDB(cfg)
	case config.DriverMemory:
		inner, err = OpenMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	logging.Info().Str("driver", inner.Driver()).Msg("Record store opened")
	return NewBreakerStore(inner, DefaultBreakerSettings()), nil
}
