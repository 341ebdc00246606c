// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/models"
)

// LoadSettings returns every global row plus the overrides of periodID.
func (s *Store) LoadSettings(ctx context.Context, periodID string) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT setting_key, period_id, value, type FROM setting
		WHERE period_id = '' OR period_id = $1
		ORDER BY period_id, setting_key
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.PeriodID, &st.Value, &st.Type); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) SaveSetting(ctx context.Context, setting models.Setting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if setting.PeriodID != "" {
		ok, err := bumpVersion(ctx, tx, setting.PeriodID, models.StatusOpen)
		if err != nil {
			return err
		}
		if !ok {
			return missingOr(ctx, tx, setting.PeriodID, lifecycle.ErrPeriodNotOpen)
		}
	}
	if err := upsertSetting(ctx, tx, setting); err != nil {
		return err
	}
	return tx.Commit()
}

// SeedSettings writes global rows. Existing rows are kept unless overwrite is set.
func (s *Store) SeedSettings(ctx context.Context, rows []models.Setting, overwrite bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, setting := range rows {
		setting.PeriodID = ""
		if overwrite {
			err = upsertSetting(ctx, tx, setting)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO setting (setting_key, period_id, value, type)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (setting_key, period_id) DO NOTHING
			`, setting.Key, setting.PeriodID, setting.Value, setting.Type)
		}
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", setting.Key, err)
		}
	}
	return tx.Commit()
}

func upsertSetting(ctx context.Context, tx *sql.Tx, setting models.Setting) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO setting (setting_key, period_id, value, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (setting_key, period_id) DO UPDATE SET
			value = excluded.value,
			type = excluded.type
	`, setting.Key, setting.PeriodID, setting.Value, setting.Type)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", setting.Key, err)
	}
	return nil
}
