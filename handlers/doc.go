// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Praise API.

# Handler Types

Each handler is a struct with service and config dependencies:

  - PeriodHandler: Period lifecycle (create, quantify, redo, close, results)
  - PraiseHandler: Praise records, assignments and quantifications
  - SettingsHandler: Global settings and period overrides

Handlers are created via constructor functions that accept a
*lifecycle.Service and Config:

	periodHandler := handlers.NewPeriodHandler(svc, cfg)

# Period Lifecycle

Periods progress through three states: open → quantify → closed

	POST /periods                    → CreatePeriod (returns admin_key)
	POST /periods/{id}/praise        → CreatePraise (open only)
	POST /periods/{id}/quantify      → StartQuantification (assigns quantifiers)
	POST /periods/{id}/assignment/redo → RedoAssignment (quantify only)
	POST /periods/{id}/close         → ClosePeriod (computes composite scores)
	GET  /periods/{id}/results       → GetResults (closed only)

Admin operations require the X-Admin-Key header. Period keys are derived
from the period ID; global settings use the auth.GlobalScope key.

# Quantification

Quantifiers identify themselves with the X-Quantifier-ID header:

	GET  /periods/{id}/quantifiers/{qid}/assignments → GetAssignments
	POST /praise/{id}/quantifications                → SubmitQuantification

The body sets exactly one of score, dismissed or duplicate_of.

# Errors

Service errors map onto status codes in errors.go: validation 400,
missing records 404, state conflicts 409, sealed results 403 and an
exhausted close retry budget 503 (with Retry-After). Anything else is
logged and returned as a generic 500.
*/
package handlers
