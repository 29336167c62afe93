// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

// Package testinfra provides container-backed infrastructure for
// integration tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// # Postgres Container
//
// PostgresContainer starts a throwaway Postgres with the learning-platform
// tables created and optionally seeded, so the SQL record store can be
// exercised against the real pgx driver:
//
//	pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSeedSQL(seed))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	st, err := store.OpenPostgres(&config.StoreConfig{DSN: pg.DSN, Schema: "public"})
//
// Tests are skipped when Docker is not available.
package testinfra
