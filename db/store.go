// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/models"
)

var _ lifecycle.Store = (*Store)(nil)

// Store implements lifecycle.Store and settings.Source over database/sql.
// Queries use $N placeholders, which both lib/pq and modernc.org/sqlite accept.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreatePeriod(ctx context.Context, p models.Period) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO period (id, name, status, end_date, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.Status, nullTime(p.EndDate), p.Version, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

func (s *Store) LoadPeriod(ctx context.Context, id string) (models.Period, error) {
	var p models.Period
	var endDate, closedAt sql.NullTime
	var seed sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, end_date, version, assignment_seed, created_at, closed_at
		FROM period WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Status, &endDate, &p.Version, &seed, &p.CreatedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Period{}, lifecycle.ErrPeriodNotFound
	}
	if err != nil {
		return models.Period{}, fmt.Errorf("failed to load period: %w", err)
	}

	if endDate.Valid {
		p.EndDate = endDate.Time
	}
	if seed.Valid {
		p.AssignmentSeed = &seed.Int64
	}
	if closedAt.Valid {
		p.ClosedAt = &closedAt.Time
	}
	return p, nil
}

// bumpVersion increments the period version if its status is wantStatus.
// It reports whether a row was updated.
func bumpVersion(ctx context.Context, tx *sql.Tx, periodID, wantStatus string) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE period SET version = version + 1
		WHERE id = $1 AND status = $2
	`, periodID, wantStatus)
	if err != nil {
		return false, fmt.Errorf("failed to update period version: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// missingOr returns ErrPeriodNotFound if the period does not exist, else stateErr.
func missingOr(ctx context.Context, tx *sql.Tx, periodID string, stateErr error) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM period WHERE id = $1`, periodID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.ErrPeriodNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load period: %w", err)
	}
	return stateErr
}

func (s *Store) CreatePraise(ctx context.Context, item models.PraiseItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := bumpVersion(ctx, tx, item.PeriodID, models.StatusOpen)
	if err != nil {
		return err
	}
	if !ok {
		return missingOr(ctx, tx, item.PeriodID, lifecycle.ErrPeriodNotOpen)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO praise (id, period_id, giver_id, receiver_id, reason, source_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.PeriodID, item.GiverID, item.ReceiverID, item.Reason, item.SourceID, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert praise: %w", err)
	}

	return tx.Commit()
}

const praiseColumns = `id, period_id, giver_id, receiver_id, reason, source_id, created_at,
	composite_score, under_quantified, duplicate_root`

type scanner interface {
	Scan(dest ...any) error
}

func scanPraise(row scanner) (models.PraiseItem, error) {
	var it models.PraiseItem
	var score sql.NullFloat64
	err := row.Scan(&it.ID, &it.PeriodID, &it.GiverID, &it.ReceiverID, &it.Reason, &it.SourceID,
		&it.CreatedAt, &score, &it.UnderQuantified, &it.DuplicateRoot)
	if err != nil {
		return it, err
	}
	if score.Valid {
		it.CompositeScore = &score.Float64
	}
	return it, nil
}

func (s *Store) LoadPraise(ctx context.Context, id string) (models.PraiseItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+praiseColumns+` FROM praise WHERE id = $1`, id)
	it, err := scanPraise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PraiseItem{}, lifecycle.ErrPraiseNotFound
	}
	if err != nil {
		return models.PraiseItem{}, fmt.Errorf("failed to load praise: %w", err)
	}

	qs, err := s.loadQuantifications(ctx, `WHERE q.praise_id = $1`, id)
	if err != nil {
		return models.PraiseItem{}, err
	}
	it.Quantifications = qs[id]
	return it, nil
}

func (s *Store) LoadPraiseItems(ctx context.Context, periodID string) ([]models.PraiseItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+praiseColumns+` FROM praise WHERE period_id = $1 ORDER BY id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query praise: %w", err)
	}

	items := []models.PraiseItem{}
	for rows.Next() {
		it, err := scanPraise(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan praise: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	qs, err := s.loadQuantifications(ctx, `JOIN praise p ON p.id = q.praise_id WHERE p.period_id = $1`, periodID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Quantifications = qs[items[i].ID]
	}
	return items, nil
}

// loadQuantifications groups rows by praise id, ordered by quantifier id.
func (s *Store) loadQuantifications(ctx context.Context, where string, arg string) (map[string][]models.Quantification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.praise_id, q.quantifier_id, q.kind, q.score, q.duplicate_of, q.updated_at
		FROM quantification q `+where+`
		ORDER BY q.praise_id, q.quantifier_id
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query quantifications: %w", err)
	}
	defer rows.Close()

	out := map[string][]models.Quantification{}
	for rows.Next() {
		var q models.Quantification
		if err := rows.Scan(&q.PraiseID, &q.QuantifierID, &q.Kind, &q.Score, &q.DuplicateOf, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quantification: %w", err)
		}
		out[q.PraiseID] = append(out[q.PraiseID], q)
	}
	return out, rows.Err()
}

func (s *Store) LoadPool(ctx context.Context, periodID string) (models.QuantifierPool, error) {
	pool := models.QuantifierPool{
		PeriodID:    periodID,
		Quantifiers: []string{},
		Assigned:    map[string][]string{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT quantifier_id FROM period_quantifier WHERE period_id = $1 ORDER BY quantifier_id
	`, periodID)
	if err != nil {
		return pool, fmt.Errorf("failed to query pool: %w", err)
	}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			rows.Close()
			return pool, fmt.Errorf("failed to scan pool: %w", err)
		}
		pool.Quantifiers = append(pool.Quantifiers, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return pool, err
	}
	rows.Close()

	qs, err := s.loadQuantifications(ctx, `JOIN praise p ON p.id = q.praise_id WHERE p.period_id = $1`, periodID)
	if err != nil {
		return pool, err
	}
	for praiseID, list := range qs {
		for _, q := range list {
			pool.Assigned[q.QuantifierID] = append(pool.Assigned[q.QuantifierID], praiseID)
		}
	}
	for q := range pool.Assigned {
		sort.Strings(pool.Assigned[q])
	}
	return pool, nil
}

func (s *Store) SaveAssignment(ctx context.Context, w lifecycle.AssignmentWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE period SET status = $1, assignment_seed = $2, version = version + 1
		WHERE id = $3 AND version = $4
	`, w.Status, w.Seed, w.PeriodID, w.Version)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return missingOr(ctx, tx, w.PeriodID, lifecycle.ErrVersionConflict)
	}

	// Replace pool
	if _, err := tx.ExecContext(ctx, `DELETE FROM period_quantifier WHERE period_id = $1`, w.PeriodID); err != nil {
		return fmt.Errorf("failed to clear pool: %w", err)
	}
	for _, q := range w.Quantifiers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO period_quantifier (period_id, quantifier_id) VALUES ($1, $2)
		`, w.PeriodID, q)
		if err != nil {
			return fmt.Errorf("failed to insert quantifier: %w", err)
		}
	}

	for _, setting := range w.Frozen {
		if err := upsertSetting(ctx, tx, setting); err != nil {
			return err
		}
	}

	if w.ReplacePending {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM quantification
			WHERE kind = $1 AND praise_id IN (SELECT id FROM praise WHERE period_id = $2)
		`, models.KindPending, w.PeriodID)
		if err != nil {
			return fmt.Errorf("failed to clear pending quantifications: %w", err)
		}
	}
	for _, q := range w.Pending {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quantification (praise_id, quantifier_id, kind, score, duplicate_of, updated_at)
			VALUES ($1, $2, $3, 0, '', $4)
		`, q.PraiseID, q.QuantifierID, models.KindPending, q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert pending quantification: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) SaveQuantification(ctx context.Context, periodID string, q models.Quantification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Taking the period row first serializes this write against close
	ok, err := bumpVersion(ctx, tx, periodID, models.StatusQuantify)
	if err != nil {
		return err
	}
	if !ok {
		return missingOr(ctx, tx, periodID, lifecycle.ErrPeriodNotOpenForQuantification)
	}

	// Only an existing assignment row may be judged; redo may have removed it
	result, err := tx.ExecContext(ctx, `
		UPDATE quantification SET kind = $1, score = $2, duplicate_of = $3, updated_at = $4
		WHERE praise_id = $5 AND quantifier_id = $6
			AND praise_id IN (SELECT id FROM praise WHERE period_id = $7)
	`, q.Kind, q.Score, q.DuplicateOf, q.UpdatedAt, q.PraiseID, q.QuantifierID, periodID)
	if err != nil {
		return fmt.Errorf("failed to update quantification: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: %s on %s", lifecycle.ErrNotAssigned, q.QuantifierID, q.PraiseID)
	}

	return tx.Commit()
}

func (s *Store) SaveCompositeScores(ctx context.Context, w lifecycle.CloseWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE period SET status = $1, closed_at = $2, version = version + 1
		WHERE id = $3 AND version = $4 AND status = $5
	`, models.StatusClosed, w.ClosedAt, w.PeriodID, w.Version, models.StatusQuantify)
	if err != nil {
		return fmt.Errorf("failed to close period: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return missingOr(ctx, tx, w.PeriodID, lifecycle.ErrVersionConflict)
	}

	for _, r := range w.Results {
		_, err := tx.ExecContext(ctx, `
			UPDATE praise SET composite_score = $1, under_quantified = $2, duplicate_root = $3
			WHERE id = $4 AND period_id = $5
		`, r.CompositeScore, r.UnderQuantified, r.DuplicateRoot, r.PraiseID, w.PeriodID)
		if err != nil {
			return fmt.Errorf("failed to store composite score: %w", err)
		}
	}

	return tx.Commit()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
