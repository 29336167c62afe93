// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package supervisor runs the long-lived services of the server under a
suture v4 supervisor tree.

Tree layout:

	cohortlens (root)
	├── data-layer
	│   └── store-health    periodic store Ping, readiness, cohortlens_store_up
	└── api-layer
	    └── http-server     chi router

Supervisor events are logged through sutureslog onto the zerolog-backed
slog handler from the logging package. A service that keeps failing puts
its layer into backoff (FailureThreshold, FailureDecay, FailureBackoff)
without stopping the other layer.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewStoreHealthService(st, 30*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
