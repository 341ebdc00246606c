// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/praise/duplicates"
	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/scoring"
)

const closeTimeout = 30 * time.Second

// ClosePeriod moves a period from quantify to closed. Duplicates are
// resolved and scores aggregated in memory, then committed in one write
// conditioned on the period version read at the start. A conflicting
// write restarts the close up to the configured retry count, after which
// ErrPeriodLockConflict is returned. Concurrent calls for one period share
// a single execution, which runs detached from any one caller's
// cancellation and is bounded by closeTimeout.
func (s *Service) ClosePeriod(ctx context.Context, periodID string) (models.ClosePeriodResponse, error) {
	if err := ctx.Err(); err != nil {
		return models.ClosePeriodResponse{}, err
	}
	v, err, shared := s.closes.Do(periodID, func() (any, error) {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		return s.closeObserved(closeCtx, periodID)
	})
	if shared {
		slog.Debug("close coalesced", "period_id", periodID)
	}
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}
	return v.(models.ClosePeriodResponse), nil
}

func (s *Service) closeObserved(ctx context.Context, periodID string) (models.ClosePeriodResponse, error) {
	start := s.now()
	resp, err := s.closeWithRetry(ctx, periodID)

	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.Closed(result, s.now().Sub(start))
	return resp, err
}

func (s *Service) closeWithRetry(ctx context.Context, periodID string) (models.ClosePeriodResponse, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.ClosePeriodResponse{}, err
		}

		resp, err := s.closeOnce(ctx, periodID)
		if !errors.Is(err, ErrVersionConflict) {
			return resp, err
		}

		s.metrics.CloseConflict()
		if attempt >= s.closeRetries {
			slog.Warn("close gave up after version conflicts", "period_id", periodID, "attempts", attempt+1)
			return models.ClosePeriodResponse{}, fmt.Errorf("%w: %d attempts", ErrPeriodLockConflict, attempt+1)
		}
		slog.Info("close retrying after version conflict", "period_id", periodID, "attempt", attempt+1)
	}
}

func (s *Service) closeOnce(ctx context.Context, periodID string) (models.ClosePeriodResponse, error) {
	// The period must be read before its items so that any submission
	// committed after this point changes the version we commit against.
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}
	if p.Status != models.StatusQuantify {
		return models.ClosePeriodResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, models.StatusClosed)
	}

	scoringSettings, _, err := s.scoringSettings(ctx, periodID)
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}
	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return models.ClosePeriodResponse{}, fmt.Errorf("failed to load praise: %w", err)
	}

	res, err := duplicates.Resolve(items)
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}
	results, err := scoring.Results(periodID, items, res, scoringSettings)
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}

	closedAt := s.now()
	err = s.store.SaveCompositeScores(ctx, CloseWrite{
		PeriodID: periodID,
		Version:  p.Version,
		ClosedAt: closedAt,
		Results:  results.Items,
	})
	if err != nil {
		return models.ClosePeriodResponse{}, err
	}

	under := 0
	for _, r := range results.Items {
		if r.UnderQuantified {
			under++
		}
	}
	s.metrics.Transitioned(models.StatusQuantify, models.StatusClosed)
	s.metrics.UnderQuantified(under)
	slog.Info("period closed",
		"period_id", periodID,
		"items", len(results.Items),
		"under_quantified", under,
	)

	return models.ClosePeriodResponse{ClosedAt: closedAt, Results: results}, nil
}

// Results returns the stored outcome of a closed period.
func (s *Service) Results(ctx context.Context, periodID string) (models.PeriodResults, error) {
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return models.PeriodResults{}, err
	}
	if p.Status != models.StatusClosed {
		return models.PeriodResults{}, ErrResultsSealed
	}

	scoringSettings, _, err := s.scoringSettings(ctx, periodID)
	if err != nil {
		return models.PeriodResults{}, err
	}
	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return models.PeriodResults{}, fmt.Errorf("failed to load praise: %w", err)
	}

	out := models.PeriodResults{PeriodID: periodID, Items: make([]models.ItemResult, 0, len(items))}
	for _, it := range items {
		r := models.ItemResult{
			PraiseID:        it.ID,
			ReceiverID:      it.ReceiverID,
			UnderQuantified: it.UnderQuantified,
			DuplicateRoot:   it.DuplicateRoot,
		}
		if it.CompositeScore != nil {
			r.CompositeScore = *it.CompositeScore
		}
		out.Items = append(out.Items, r)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].PraiseID < out.Items[j].PraiseID })
	out.Receivers = scoring.SummarizeReceivers(out.Items, scoringSettings.Precision)
	return out, nil
}
