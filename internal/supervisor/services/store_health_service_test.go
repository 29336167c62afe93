// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cohortlens/internal/metrics"
)

// scriptedPinger returns errs in order, then nil forever.
type scriptedPinger struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (p *scriptedPinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func (p *scriptedPinger) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestStoreHealthService_Interface(t *testing.T) {
	var _ suture.Service = (*StoreHealthService)(nil)
}

func TestNewStoreHealthService_Defaults(t *testing.T) {
	svc := NewStoreHealthService(&scriptedPinger{}, 0)
	if svc.interval != DefaultStoreHealthInterval {
		t.Errorf("interval = %v, want %v", svc.interval, DefaultStoreHealthInterval)
	}
	if svc.timeout != maxPingTimeout {
		t.Errorf("timeout = %v, want capped at %v", svc.timeout, maxPingTimeout)
	}

	short := NewStoreHealthService(&scriptedPinger{}, time.Second)
	if short.timeout != time.Second {
		t.Errorf("timeout = %v, want interval when shorter than cap", short.timeout)
	}
}

func TestStoreHealthService_Check(t *testing.T) {
	down := errors.New("connection refused")
	pinger := &scriptedPinger{errs: []error{down}}
	svc := NewStoreHealthService(pinger, time.Minute)

	if svc.Healthy() {
		t.Fatal("service should be unhealthy before the first probe")
	}
	if at, _ := svc.LastCheck(); !at.IsZero() {
		t.Errorf("LastCheck before probing = %v, want zero", at)
	}

	if err := svc.Check(context.Background()); !errors.Is(err, down) {
		t.Fatalf("Check() = %v, want %v", err, down)
	}
	if svc.Healthy() {
		t.Error("Healthy() = true after failed probe")
	}
	if got := testutil.ToFloat64(metrics.StoreUp); got != 0 {
		t.Errorf("store_up = %v, want 0", got)
	}
	if _, err := svc.LastCheck(); !errors.Is(err, down) {
		t.Errorf("LastCheck err = %v", err)
	}

	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("second Check() = %v", err)
	}
	if !svc.Healthy() {
		t.Error("Healthy() = false after recovery")
	}
	if got := testutil.ToFloat64(metrics.StoreUp); got != 1 {
		t.Errorf("store_up = %v, want 1", got)
	}
	if at, err := svc.LastCheck(); at.IsZero() || err != nil {
		t.Errorf("LastCheck = (%v, %v)", at, err)
	}
}

func TestStoreHealthService_CanceledProbeKeepsState(t *testing.T) {
	svc := NewStoreHealthService(&scriptedPinger{}, time.Minute)
	if err := svc.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Check(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Check(canceled) = %v", err)
	}
	if !svc.Healthy() {
		t.Error("a probe interrupted by shutdown must not flip readiness")
	}
}

func TestStoreHealthService_Serve(t *testing.T) {
	pinger := &scriptedPinger{}
	svc := NewStoreHealthService(pinger, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for pinger.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if pinger.Calls() < 3 {
		t.Errorf("ping calls = %d, want at least 3", pinger.Calls())
	}
	if !svc.Healthy() {
		t.Error("Healthy() = false with a healthy store")
	}
}
