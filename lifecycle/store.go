// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"time"

	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/settings"
)

// Store is the persistence contract of the Service. Writes that depend on
// period state check it inside their own transaction and report the
// lifecycle sentinel errors listed on each method.
type Store interface {
	settings.Source

	CreatePeriod(ctx context.Context, p models.Period) error
	// LoadPeriod returns ErrPeriodNotFound for unknown ids.
	LoadPeriod(ctx context.Context, id string) (models.Period, error)

	// CreatePraise bumps the period version. ErrPeriodNotOpen if the
	// period left open.
	CreatePraise(ctx context.Context, item models.PraiseItem) error
	// LoadPraise returns one item with its quantifications, or ErrPraiseNotFound.
	LoadPraise(ctx context.Context, id string) (models.PraiseItem, error)
	// LoadPraiseItems returns a period's items with their quantifications.
	LoadPraiseItems(ctx context.Context, periodID string) ([]models.PraiseItem, error)
	LoadPool(ctx context.Context, periodID string) (models.QuantifierPool, error)

	// SaveAssignment applies w atomically. ErrVersionConflict if the
	// period version is no longer w.Version.
	SaveAssignment(ctx context.Context, w AssignmentWrite) error
	// SaveQuantification overwrites the quantifier's assignment row with q and
	// bumps the period version. ErrPeriodNotOpenForQuantification if the
	// period is not in quantify, ErrNotAssigned if no such row exists.
	SaveQuantification(ctx context.Context, periodID string, q models.Quantification) error
	// SaveCompositeScores closes the period and stores every result in one
	// transaction. ErrVersionConflict if the period version is no longer w.Version.
	SaveCompositeScores(ctx context.Context, w CloseWrite) error

	// SaveSetting upserts a row. Period scoped rows require the period to be
	// open and bump its version; otherwise ErrPeriodNotOpen.
	SaveSetting(ctx context.Context, s models.Setting) error
}

// AssignmentWrite moves a period into quantify (or keeps it there on redo)
// with a fresh set of pending quantifications.
type AssignmentWrite struct {
	PeriodID    string
	Version     int64
	Status      string
	Seed        int64
	Quantifiers []string
	// Frozen settings rows, written when the period enters quantify.
	Frozen []models.Setting
	// ReplacePending drops existing pending rows before inserting Pending.
	ReplacePending bool
	Pending        []models.Quantification
}

// CloseWrite is the staged outcome of closing a period.
type CloseWrite struct {
	PeriodID string
	Version  int64
	ClosedAt time.Time
	Results  []models.ItemResult
}
