// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/danielhkuo/praise/assignment"
	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/settings"
)

// AssignmentSummary reports one assignment run.
type AssignmentSummary struct {
	Status string
	Seed   int64
	Result assignment.Result
}

// StartQuantification moves an open period into quantify: it freezes the
// scoring settings, assigns quantifiers once and stores the pending rows.
// A nil seed draws a random one; the seed used is returned and stored.
// A write that races another start, or a praise insert, is retried from a
// fresh read, so the loser of two starts sees ErrAssignmentAlreadyExists.
func (s *Service) StartQuantification(ctx context.Context, periodID string, pool []string, seed *int64) (AssignmentSummary, error) {
	useSeed := s.pickSeed(seed)
	for attempt := 0; ; attempt++ {
		summary, err := s.startOnce(ctx, periodID, pool, useSeed)
		if !errors.Is(err, ErrVersionConflict) {
			return summary, err
		}
		if attempt >= s.closeRetries {
			return AssignmentSummary{}, fmt.Errorf("%w: %d attempts", ErrPeriodLockConflict, attempt+1)
		}
		slog.Info("quantification start retrying after version conflict", "period_id", periodID, "attempt", attempt+1)
	}
}

func (s *Service) startOnce(ctx context.Context, periodID string, pool []string, useSeed int64) (AssignmentSummary, error) {
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, err
	}
	switch p.Status {
	case models.StatusOpen:
	case models.StatusQuantify:
		return AssignmentSummary{}, fmt.Errorf("%w: use redo to reassign", ErrAssignmentAlreadyExists)
	default:
		return AssignmentSummary{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, models.StatusQuantify)
	}

	scoring, r, err := s.scoringSettings(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, err
	}
	frozen, err := settings.Freeze(r, periodID)
	if err != nil {
		return AssignmentSummary{}, err
	}

	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, fmt.Errorf("failed to load praise: %w", err)
	}

	res, err := assignment.Assign(assignment.Request{
		Items:       items,
		Quantifiers: pool,
		PerItem:     scoring.MinQuantifiersPerItem,
		Seed:        useSeed,
	})
	if err != nil {
		return AssignmentSummary{}, err
	}

	err = s.store.SaveAssignment(ctx, AssignmentWrite{
		PeriodID:    periodID,
		Version:     p.Version,
		Status:      models.StatusQuantify,
		Seed:        useSeed,
		Quantifiers: poolOf(res),
		Frozen:      frozen,
		Pending:     s.pendingRows(res),
	})
	if err != nil {
		return AssignmentSummary{}, err
	}

	s.metrics.Transitioned(models.StatusOpen, models.StatusQuantify)
	s.metrics.Assigned(res.Loads)
	slog.Info("quantification started",
		"period_id", periodID,
		"items", len(items),
		"quantifiers", len(res.Loads),
		"seed", useSeed,
	)
	return AssignmentSummary{Status: models.StatusQuantify, Seed: useSeed, Result: res}, nil
}

// RedoAssignment replaces every pending quantification of a period in
// quantify. Submitted judgments stay and count toward each item's quota.
// An empty pool reuses the period's current pool.
func (s *Service) RedoAssignment(ctx context.Context, periodID string, pool []string, seed *int64) (AssignmentSummary, error) {
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, err
	}
	if p.Status != models.StatusQuantify {
		return AssignmentSummary{}, fmt.Errorf("%w: redo requires %s, period is %s", ErrInvalidTransition, models.StatusQuantify, p.Status)
	}

	if len(pool) == 0 {
		current, err := s.store.LoadPool(ctx, periodID)
		if err != nil {
			return AssignmentSummary{}, fmt.Errorf("failed to load pool: %w", err)
		}
		pool = current.Quantifiers
	}

	scoring, _, err := s.scoringSettings(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, err
	}

	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return AssignmentSummary{}, fmt.Errorf("failed to load praise: %w", err)
	}
	existing := map[string][]string{}
	for _, it := range items {
		for _, q := range it.Quantifications {
			if q.Submitted() {
				existing[it.ID] = append(existing[it.ID], q.QuantifierID)
			}
		}
	}

	useSeed := s.pickSeed(seed)
	res, err := assignment.Assign(assignment.Request{
		Items:       items,
		Quantifiers: pool,
		PerItem:     scoring.MinQuantifiersPerItem,
		Seed:        useSeed,
		Existing:    existing,
	})
	if err != nil {
		return AssignmentSummary{}, err
	}

	err = s.store.SaveAssignment(ctx, AssignmentWrite{
		PeriodID:       periodID,
		Version:        p.Version,
		Status:         models.StatusQuantify,
		Seed:           useSeed,
		Quantifiers:    poolOf(res),
		ReplacePending: true,
		Pending:        s.pendingRows(res),
	})
	if err != nil {
		return AssignmentSummary{}, err
	}

	s.metrics.Assigned(res.Loads)
	slog.Info("assignment redone", "period_id", periodID, "kept", len(existing), "seed", useSeed)
	return AssignmentSummary{Status: models.StatusQuantify, Seed: useSeed, Result: res}, nil
}

func (s *Service) pickSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return s.seedGenerator()
}

func poolOf(res assignment.Result) []string {
	out := make([]string, 0, len(res.Loads))
	for q := range res.Loads {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

func (s *Service) pendingRows(res assignment.Result) []models.Quantification {
	now := s.now()
	var out []models.Quantification
	for praiseID, qs := range res.ByPraise {
		for _, q := range qs {
			out = append(out, models.Quantification{
				PraiseID:     praiseID,
				QuantifierID: q,
				Kind:         models.KindPending,
				UpdatedAt:    now,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PraiseID != out[j].PraiseID {
			return out[i].PraiseID < out[j].PraiseID
		}
		return out[i].QuantifierID < out[j].QuantifierID
	})
	return out
}

// SubmitQuantification validates and stores one quantifier's judgment of
// one praise item. Resubmitting replaces the previous judgment.
func (s *Service) SubmitQuantification(ctx context.Context, praiseID, quantifierID string, j models.Judgment) (models.Quantification, error) {
	if err := j.Validate(); err != nil {
		return models.Quantification{}, err
	}

	item, err := s.store.LoadPraise(ctx, praiseID)
	if err != nil {
		return models.Quantification{}, err
	}
	p, err := s.store.LoadPeriod(ctx, item.PeriodID)
	if err != nil {
		return models.Quantification{}, err
	}
	if p.Status != models.StatusQuantify {
		return models.Quantification{}, fmt.Errorf("%w: period is %s", ErrPeriodNotOpenForQuantification, p.Status)
	}

	if item.IsParticipant(quantifierID) {
		return models.Quantification{}, ErrSelfQuantification
	}
	if !assignedTo(item, quantifierID) {
		return models.Quantification{}, ErrNotAssigned
	}

	switch j.Kind {
	case models.KindScored:
		scoring, _, err := s.scoringSettings(ctx, item.PeriodID)
		if err != nil {
			return models.Quantification{}, err
		}
		if !settings.IsAllowed(scoring, j.Score) {
			return models.Quantification{}, fmt.Errorf("%w: %d not in %v", ErrInvalidScore, j.Score, scoring.AllowedScores)
		}
	case models.KindDuplicate:
		if err := s.checkDuplicateTarget(ctx, item, j.DuplicateOf); err != nil {
			return models.Quantification{}, err
		}
	}

	q := models.Quantification{
		PraiseID:     praiseID,
		QuantifierID: quantifierID,
		Kind:         j.Kind,
		Score:        j.Score,
		DuplicateOf:  j.DuplicateOf,
		UpdatedAt:    s.now(),
	}
	if err := s.store.SaveQuantification(ctx, item.PeriodID, q); err != nil {
		return models.Quantification{}, err
	}

	s.metrics.Submitted(q.Kind)
	slog.Info("quantification submitted",
		"period_id", item.PeriodID,
		"praise_id", praiseID,
		"quantifier_id", quantifierID,
		"kind", q.Kind,
	)
	return q, nil
}

func assignedTo(item models.PraiseItem, quantifierID string) bool {
	for _, q := range item.Quantifications {
		if q.QuantifierID == quantifierID {
			return true
		}
	}
	return false
}

// checkDuplicateTarget requires target to be another praise item of the same period.
func (s *Service) checkDuplicateTarget(ctx context.Context, item models.PraiseItem, target string) error {
	if target == item.ID {
		return fmt.Errorf("%w: praise cannot duplicate itself", ErrInvalidDuplicate)
	}
	other, err := s.store.LoadPraise(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDuplicate, target, err)
	}
	if other.PeriodID != item.PeriodID {
		return fmt.Errorf("%w: %s belongs to another period", ErrInvalidDuplicate, target)
	}
	return nil
}

// Assignments returns the items a quantifier holds in a period, each with
// only that quantifier's own quantification.
func (s *Service) Assignments(ctx context.Context, periodID, quantifierID string) ([]models.PraiseItem, error) {
	if _, err := s.store.LoadPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load praise: %w", err)
	}

	out := []models.PraiseItem{}
	for _, it := range items {
		for _, q := range it.Quantifications {
			if q.QuantifierID == quantifierID {
				it.Quantifications = []models.Quantification{q}
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func (s *Service) Pool(ctx context.Context, periodID string) (models.QuantifierPool, error) {
	if _, err := s.store.LoadPeriod(ctx, periodID); err != nil {
		return models.QuantifierPool{}, err
	}
	return s.store.LoadPool(ctx, periodID)
}
