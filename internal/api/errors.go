// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/cohortlens/internal/store"
)

// Error codes for API responses
const (
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeStoreError         = "STORE_ERROR"
	ErrCodeStoreNotConfigured = "STORE_NOT_CONFIGURED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// classifyError maps an engine error to status, code and a client-safe
// message. Store internals never reach the client.
func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		return http.StatusInternalServerError, ErrCodeStoreNotConfigured,
			"Record store credentials are not configured"
	case store.IsUnavailable(err):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Record store is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout,
			"Analytics computation timed out"
	default:
		return http.StatusInternalServerError, ErrCodeStoreError,
			"Failed to load analytics data"
	}
}
