// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

//go:build integration

package testinfra

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the Postgres image used by default.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultPostgresPort is the container-side Postgres port.
	DefaultPostgresPort = "5432"

	postgresUser     = "cohortlens"
	postgresPassword = "cohortlens"
	postgresDB       = "cohortlens"
)

// Schema creates every table the record store reads, with the column types
// a Supabase-style deployment uses.
const Schema = `
CREATE TABLE courses (
	id UUID PRIMARY KEY,
	title TEXT,
	category TEXT,
	is_published BOOLEAN
);
CREATE TABLE modules (
	id UUID PRIMARY KEY,
	course_id UUID,
	title TEXT,
	order_index INTEGER
);
CREATE TABLE lessons (
	id UUID PRIMARY KEY,
	module_id UUID,
	title TEXT,
	order_index INTEGER
);
CREATE TABLE enrollments (
	id UUID PRIMARY KEY,
	user_id UUID,
	course_id UUID,
	status TEXT,
	progress_percentage NUMERIC,
	enrolled_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ
);
CREATE TABLE lesson_progress (
	id UUID PRIMARY KEY,
	user_id UUID,
	lesson_id UUID,
	course_id UUID,
	completed_at TIMESTAMPTZ
);
CREATE TABLE profiles (
	id UUID PRIMARY KEY,
	display_name TEXT,
	onboarding_data JSONB,
	created_at TIMESTAMPTZ
);
CREATE TABLE survey_responses (
	id UUID PRIMARY KEY,
	organization_id UUID,
	staff_member_id UUID,
	survey_type TEXT,
	stress_level NUMERIC,
	planning_hours NUMERIC,
	implementation_confidence NUMERIC,
	retention_intent NUMERIC,
	feeling_valued NUMERIC,
	submitted_at TIMESTAMPTZ
);
CREATE TABLE metric_snapshots (
	id UUID PRIMARY KEY,
	organization_id UUID,
	building_id UUID,
	metric_name TEXT,
	metric_value NUMERIC,
	snapshot_date DATE
);
CREATE TABLE partnerships (
	id UUID PRIMARY KEY,
	slug TEXT,
	contract_phase TEXT,
	contract_start_date DATE
);
CREATE TABLE organizations (
	id UUID PRIMARY KEY,
	partnership_id UUID,
	name TEXT
);
CREATE TABLE user_emails (
	id UUID PRIMARY KEY,
	email TEXT
);
`

// PostgresContainer is a running Postgres with Schema applied.
type PostgresContainer struct {
	testcontainers.Container
	DSN string
}

// PostgresOption configures the Postgres container.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	seedSQL      string
	startTimeout time.Duration
}

// WithPostgresImage sets a custom Postgres image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) {
		c.image = image
	}
}

// WithSeedSQL runs seed after the schema is created.
func WithSeedSQL(seed string) PostgresOption {
	return func(c *postgresConfig) {
		c.seedSQL = seed
	}
}

// WithPostgresStartTimeout bounds how long startup may take.
func WithPostgresStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) {
		c.startTimeout = timeout
	}
}

// NewPostgresContainer starts Postgres, applies Schema and the optional seed.
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The entrypoint restarts the server once after initdb.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort+"/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDB)

	if err := applySQL(ctx, dsn, Schema, cfg.seedSQL); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &PostgresContainer{Container: container, DSN: dsn}, nil
}

func applySQL(ctx context.Context, dsn string, stmts ...string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer conn.Close()

	for _, stmt := range stmts {
		if stmt == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply sql: %w", err)
		}
	}
	return nil
}
