// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Praise API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, cfg, registry)

The gatherer (usually the registry the metrics were registered with) is
served on /metrics. Passing nil leaves it out.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Period lifecycle (admin, requires X-Admin-Key):

	POST /periods                       - Create period
	GET  /periods/{id}                  - Period state
	POST /periods/{id}/quantify         - Assign quantifiers
	POST /periods/{id}/assignment/redo  - Replace pending assignments
	POST /periods/{id}/close            - Compute and seal results
	GET  /periods/{id}/results          - Final results (closed only)

Praise and quantification:

	POST /periods/{id}/praise                       - Record praise (open only)
	GET  /periods/{id}/praise                       - List praise
	GET  /periods/{id}/quantifiers/{qid}/assignments - A quantifier's items
	POST /praise/{id}/quantifications               - Submit a judgment (X-Quantifier-ID)

Settings:

	GET /settings                        - Global rows, plus ?period_id= overrides
	PUT /settings/{key}                  - Global setting (global admin key)
	PUT /periods/{id}/settings/{key}     - Period override (open only)

# Handler Initialization

The router creates handler instances with dependency injection:

	periodHandler := handlers.NewPeriodHandler(svc, cfg)
	praiseHandler := handlers.NewPraiseHandler(svc, cfg)
	settingsHandler := handlers.NewSettingsHandler(svc, cfg)

All handlers share the lifecycle service and configuration.
*/
package router
