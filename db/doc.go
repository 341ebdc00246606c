// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation and the SQL-backed Store.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on Postgres (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

The schema includes:

  - period: Period metadata, lifecycle state, version and assignment seed
  - period_quantifier: The quantifier pool of each period
  - praise: Praise items and, once closed, their composite scores
  - quantification: One row per assigned quantifier per praise
  - setting: Global rows (empty period_id) and period overrides

# Relationships

	period 1──* praise
	period 1──* period_quantifier
	praise 1──* quantification
	period 1──* setting (overrides)

Foreign keys use ON DELETE CASCADE.

# Versioning

Every write that depends on period state bumps period.version in the same
transaction. SaveAssignment and SaveCompositeScores commit only if the
version still matches the one the caller read, and return
lifecycle.ErrVersionConflict otherwise.
*/
package db
