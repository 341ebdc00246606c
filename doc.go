// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Praise API server.

Praise collects peer recognition during a period, hands each item to a
panel of quantifiers, and turns their judgments into composite scores
when the period closes. Quantifiers may score an item, dismiss it, or
mark it as a duplicate of another item; duplicates inherit a dampened
share of their original's score.

# Starting the Server

The server reads environment variables (including a .env file) or CLI
flags:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 3318 -t sqlite -d "file:praise.db"

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string for the selected driver
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SETTINGS_FILE (--settings): YAML file of global settings applied at startup
  - CLOSE_RETRIES (--close-retries): Close attempts before giving up on a version conflict (default: 3)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (periods, praise, settings)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - lifecycle: Period state machine and the close transaction
  - settings: Global and per-period setting resolution
  - assignment: Quantifier pool assignment
  - duplicates: Duplicate graph resolution
  - scoring: Composite score aggregation
  - metrics: Prometheus collectors
  - models: Request/response and domain types
  - auth: ID and admin key generation
  - db: Schema and SQL store
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
