// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by Postgres and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table, children first.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS quantification;
		DROP TABLE IF EXISTS praise;
		DROP TABLE IF EXISTS period_quantifier;
		DROP TABLE IF EXISTS setting;
		DROP TABLE IF EXISTS period;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

const schema = `
-- Periods
CREATE TABLE IF NOT EXISTS period (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'quantify', 'closed')),
    end_date TIMESTAMP,
    version BIGINT NOT NULL DEFAULT 0,
    assignment_seed BIGINT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_period_status ON period(status);

-- Quantifier pool per period
CREATE TABLE IF NOT EXISTS period_quantifier (
    period_id TEXT NOT NULL REFERENCES period(id) ON DELETE CASCADE,
    quantifier_id TEXT NOT NULL,
    PRIMARY KEY (period_id, quantifier_id)
);

-- Praise
CREATE TABLE IF NOT EXISTS praise (
    id TEXT PRIMARY KEY,
    period_id TEXT NOT NULL REFERENCES period(id) ON DELETE CASCADE,
    giver_id TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    reason TEXT NOT NULL,
    source_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    composite_score DOUBLE PRECISION,
    under_quantified BOOLEAN NOT NULL DEFAULT FALSE,
    duplicate_root TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_praise_period_id ON praise(period_id);
CREATE INDEX IF NOT EXISTS idx_praise_receiver_id ON praise(receiver_id);

-- Quantifications, one per assigned quantifier per praise
CREATE TABLE IF NOT EXISTS quantification (
    praise_id TEXT NOT NULL REFERENCES praise(id) ON DELETE CASCADE,
    quantifier_id TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'pending' CHECK (kind IN ('pending', 'scored', 'dismissed', 'duplicate')),
    score INTEGER NOT NULL DEFAULT 0,
    duplicate_of TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (praise_id, quantifier_id)
);

CREATE INDEX IF NOT EXISTS idx_quantification_quantifier_id ON quantification(quantifier_id);

-- Settings; period_id is '' for global rows
CREATE TABLE IF NOT EXISTS setting (
    setting_key TEXT NOT NULL,
    period_id TEXT NOT NULL DEFAULT '',
    value TEXT NOT NULL,
    type TEXT NOT NULL,
    PRIMARY KEY (setting_key, period_id)
);
`
