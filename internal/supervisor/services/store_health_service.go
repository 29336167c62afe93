// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package services

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
)

// DefaultStoreHealthInterval is used when no interval is configured.
const DefaultStoreHealthInterval = 30 * time.Second

// maxPingTimeout caps a single probe.
const maxPingTimeout = 5 * time.Second

// Pinger is the slice of store.RecordStore the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService pings the record store on an interval and keeps the
// last result for readiness checks. The store counts as unhealthy until
// the first successful ping.
type StoreHealthService struct {
	store    Pinger
	interval time.Duration
	timeout  time.Duration
	name     string

	mu        sync.RWMutex
	healthy   bool
	checkedAt time.Time
	lastErr   error
}

// NewStoreHealthService creates a probe for store.
func NewStoreHealthService(store Pinger, interval time.Duration) *StoreHealthService {
	if interval <= 0 {
		interval = DefaultStoreHealthInterval
	}
	timeout := interval
	if timeout > maxPingTimeout {
		timeout = maxPingTimeout
	}
	return &StoreHealthService{
		store:    store,
		interval: interval,
		timeout:  timeout,
		name:     "store-health",
	}
}

// Serve implements suture.Service. It probes once immediately and then on
// every tick until ctx is canceled.
func (s *StoreHealthService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check runs one probe and records its outcome.
func (s *StoreHealthService) Check(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.Ping(pingCtx)
	cancel()

	if ctx.Err() != nil {
		// Shutdown interrupted the probe; keep the previous result.
		return ctx.Err()
	}

	s.mu.Lock()
	wasHealthy := s.healthy
	first := s.checkedAt.IsZero()
	s.healthy = err == nil
	s.checkedAt = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	metrics.SetStoreUp(err == nil)

	switch {
	case err != nil && (wasHealthy || first):
		logging.Warn().Err(err).Msg("Record store health check failed")
	case err == nil && !wasHealthy && !first:
		logging.Info().Msg("Record store recovered")
	}
	return err
}

// Healthy reports whether the last probe succeeded.
func (s *StoreHealthService) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// LastCheck returns when the last probe ran and its error.
func (s *StoreHealthService) LastCheck() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkedAt, s.lastErr
}

// String implements fmt.Stringer for suture's log messages.
func (s *StoreHealthService) String() string {
	return s.name
}
