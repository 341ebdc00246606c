// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danielhkuo/praise/duplicates"
	"github.com/danielhkuo/praise/models"
)

var ErrRootNotScored = errors.New("duplicate root has no composite score")

// Tally is the partition of an item's submitted quantifications.
type Tally struct {
	Scored    int
	Dismissed int
	Duplicate int
	Sum       int // of scored entries
}

// Partition splits quantifications by kind. Pending rows are skipped.
func Partition(qs []models.Quantification) Tally {
	var t Tally
	for _, q := range qs {
		switch q.Kind {
		case models.KindScored:
			t.Scored++
			t.Sum += q.Score
		case models.KindDismissed:
			t.Dismissed++
		case models.KindDuplicate:
			t.Duplicate++
		}
	}
	return t
}

// Round rounds x half away from zero to precision decimal places.
func Round(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(x*p) / p
}

// Aggregate computes one item's composite score. rootScore is only read when
// the resolution marks the item as a non-root duplicate.
//
// Direct items score the mean of scored entries, with each dismissal adding
// a zero to the denominator. Duplicate markings on a direct item are not
// votes. An item with no scored entry gets 0 and is flagged under-quantified.
func Aggregate(item models.PraiseItem, res duplicates.Resolution, s models.ScoringSettings, rootScore float64) models.ItemResult {
	out := models.ItemResult{
		PraiseID:      item.ID,
		ReceiverID:    item.ReceiverID,
		DuplicateRoot: res.Root(item.ID),
	}

	if res.IsDuplicate(item.ID) {
		out.CompositeScore = Round(rootScore*s.DuplicateDampening, s.Precision)
		return out
	}

	t := Partition(item.Quantifications)
	if t.Scored == 0 {
		out.UnderQuantified = true
		return out
	}
	out.CompositeScore = Round(float64(t.Sum)/float64(t.Scored+t.Dismissed), s.Precision)
	return out
}

// AggregatePeriod scores every item, roots before the duplicates that
// depend on them. Results are sorted by praise id.
func AggregatePeriod(items []models.PraiseItem, res duplicates.Resolution, s models.ScoringSettings) ([]models.ItemResult, error) {
	sorted := make([]models.PraiseItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	results := make([]models.ItemResult, 0, len(sorted))
	rootScores := map[string]float64{}

	for _, it := range sorted {
		if res.IsDuplicate(it.ID) {
			continue
		}
		r := Aggregate(it, res, s, 0)
		rootScores[it.ID] = r.CompositeScore
		results = append(results, r)
	}
	for _, it := range sorted {
		if !res.IsDuplicate(it.ID) {
			continue
		}
		root := res.Root(it.ID)
		rootScore, ok := rootScores[root]
		if !ok {
			return nil, fmt.Errorf("%w: %s (root of %s)", ErrRootNotScored, root, it.ID)
		}
		results = append(results, Aggregate(it, res, s, rootScore))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].PraiseID < results[j].PraiseID })
	return results, nil
}

// SummarizeReceivers rolls item results up per receiver. Receivers are
// ranked by total score, then praise count, then id ascending.
func SummarizeReceivers(results []models.ItemResult, precision int) []models.ReceiverSummary {
	byReceiver := map[string]*models.ReceiverSummary{}
	for _, r := range results {
		sum, ok := byReceiver[r.ReceiverID]
		if !ok {
			sum = &models.ReceiverSummary{ReceiverID: r.ReceiverID}
			byReceiver[r.ReceiverID] = sum
		}
		sum.PraiseCount++
		sum.TotalScore += r.CompositeScore
	}

	out := make([]models.ReceiverSummary, 0, len(byReceiver))
	for _, sum := range byReceiver {
		sum.TotalScore = Round(sum.TotalScore, precision)
		out = append(out, *sum)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.PraiseCount != b.PraiseCount {
			return a.PraiseCount > b.PraiseCount
		}
		return a.ReceiverID < b.ReceiverID
	})
	for i := range out {
		out[i].Rank = i + 1 // 1-indexed ranking
	}
	return out
}

// Results builds the full period report.
func Results(periodID string, items []models.PraiseItem, res duplicates.Resolution, s models.ScoringSettings) (models.PeriodResults, error) {
	itemResults, err := AggregatePeriod(items, res, s)
	if err != nil {
		return models.PeriodResults{}, err
	}
	return models.PeriodResults{
		PeriodID:  periodID,
		Items:     itemResults,
		Receivers: SummarizeReceivers(itemResults, s.Precision),
	}, nil
}
