// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

// maxErrorBodySize bounds how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// readBodyForError reads at most maxErrorBodySize bytes for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// PostgRESTStore reads rows from a PostgREST endpoint. The configured URL is
// the REST root, e.g. https://project.supabase.co/rest/v1.
//
// HTTP 429 responses are retried with exponential backoff honoring
// Retry-After. Nothing else is retried.
type PostgRESTStore struct {
	baseURL        string
	apiKey         string
	schema         string
	identityTable  string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewPostgRESTStore builds a client from cfg. Missing URL or key is reported
// by the first fetch as ErrNotConfigured.
func NewPostgRESTStore(cfg *config.StoreConfig) *PostgRESTStore {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &PostgRESTStore{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		apiKey:         cfg.APIKey,
		schema:         cfg.Schema,
		identityTable:  cfg.IdentityTable,
		client:         &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
}

// Driver implements RecordStore.
func (s *PostgRESTStore) Driver() string { return config.DriverPostgREST }

// Close implements RecordStore.
func (s *PostgRESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *PostgRESTStore) configured() error {
	if s.baseURL == "" || s.apiKey == "" {
		return fmt.Errorf("postgrest: STORE_URL and STORE_API_KEY are required: %w", ErrNotConfigured)
	}
	return nil
}

// Ping requests the OpenAPI root.
func (s *PostgRESTStore) Ping(ctx context.Context) error {
	if err := s.configured(); err != nil {
		return err
	}
	resp, err := s.doRequestWithRateLimit(ctx, s.baseURL+"/")
	if err != nil {
		return fmt.Errorf("postgrest ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("postgrest ping: status %d: %s", resp.StatusCode, readBodyForError(resp.Body))
	}
	return nil
}

// buildURL renders the PostgREST query string for q.
func (s *PostgRESTStore) buildURL(table string, entity Entity, q Query) string {
	params := url.Values{}
	params.Set("select", columnList(entity))
	for _, f := range q.Filters {
		params.Add(f.Column, "eq."+f.Value)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Descending {
			dir = "desc"
		}
		params.Set("order", q.OrderBy+"."+dir+".nullslast")
	}
	if l := limitString(q.Limit); l != "" {
		params.Set("limit", l)
	}
	return fmt.Sprintf("%s/%s?%s", s.baseURL, url.PathEscape(table), params.Encode())
}

// doRequestWithRateLimit issues a GET, waiting on the client-side limiter
// and retrying HTTP 429 with backoff (1s, 2s, 4s, ...).
func (s *PostgRESTStore) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Accept", "application/json")
		if s.schema != "" {
			req.Header.Set("Accept-Profile", s.schema)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt >= s.maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", s.maxRetries)
		}
		metrics.StoreRateLimitRetries.Inc()

		delay := s.retryBaseDelay * time.Duration(1<<uint(attempt))
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds >= 0 {
			delay = time.Duration(seconds) * time.Second
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// fetchRows is the shared GET-and-decode path for every entity.
func fetchRows[T any](ctx context.Context, s *PostgRESTStore, table string, entity Entity, q Query) ([]T, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if err := q.validate(entity); err != nil {
		return nil, err
	}

	resp, err := s.doRequestWithRateLimit(ctx, s.buildURL(table, entity, q))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d: %s", table, resp.StatusCode, readBodyForError(resp.Body))
	}

	var rows []T
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", table, err)
	}
	return rows, nil
}

// Enrollments implements RecordStore.
func (s *PostgRESTStore) Enrollments(ctx context.Context, q Query) ([]models.Enrollment, error) {
	return fetchRows[models.Enrollment](ctx, s, string(EntityEnrollments), EntityEnrollments, q)
}

// Courses implements RecordStore.
func (s *PostgRESTStore) Courses(ctx context.Context, q Query) ([]models.Course, error) {
	return fetchRows[models.Course](ctx, s, string(EntityCourses), EntityCourses, q)
}

// Modules implements RecordStore.
func (s *PostgRESTStore) Modules(ctx context.Context, q Query) ([]models.Module, error) {
	return fetchRows[models.Module](ctx, s, string(EntityModules), EntityModules, q)
}

// Lessons implements RecordStore.
func (s *PostgRESTStore) Lessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	return fetchRows[models.Lesson](ctx, s, string(EntityLessons), EntityLessons, q)
}

// LessonProgress implements RecordStore.
func (s *PostgRESTStore) LessonProgress(ctx context.Context, q Query) ([]models.LessonProgress, error) {
	return fetchRows[models.LessonProgress](ctx, s, string(EntityLessonProgress), EntityLessonProgress, q)
}

// Profiles implements RecordStore.
func (s *PostgRESTStore) Profiles(ctx context.Context, q Query) ([]models.Profile, error) {
	return fetchRows[models.Profile](ctx, s, string(EntityProfiles), EntityProfiles, q)
}

// SurveyResponses implements RecordStore.
func (s *PostgRESTStore) SurveyResponses(ctx context.Context, q Query) ([]models.SurveyResponse, error) {
	return fetchRows[models.SurveyResponse](ctx, s, string(EntitySurveyResponses), EntitySurveyResponses, q)
}

// MetricSnapshots implements RecordStore.
func (s *PostgRESTStore) MetricSnapshots(ctx context.Context, q Query) ([]models.MetricSnapshot, error) {
	return fetchRows[models.MetricSnapshot](ctx, s, string(EntityMetricSnapshots), EntityMetricSnapshots, q)
}

// Organizations implements RecordStore.
func (s *PostgRESTStore) Organizations(ctx context.Context, q Query) ([]models.Organization, error) {
	return fetchRows[models.Organization](ctx, s, string(EntityOrganizations), EntityOrganizations, q)
}

// Partnerships implements RecordStore.
func (s *PostgRESTStore) Partnerships(ctx context.Context, q Query) ([]models.Partnership, error) {
	return fetchRows[models.Partnership](ctx, s, string(EntityPartnerships), EntityPartnerships, q)
}

type identityRow struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Emails implements IdentityDirectory.
func (s *PostgRESTStore) Emails(ctx context.Context, limit int) (map[string]string, error) {
	rows, err := fetchRows[identityRow](ctx, s, s.identityTable, EntityIdentities, Query{Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Email
	}
	return out, nil
}
