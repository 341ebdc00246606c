// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/praise/duplicates"
	"github.com/danielhkuo/praise/models"
)

var defaultSettings = models.ScoringSettings{
	DuplicateDampening:    0.1,
	AllowedScores:         []int{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
	MinQuantifiersPerItem: 2,
	Precision:             2,
}

func q(quantifier, kind string, score int, dupOf string) models.Quantification {
	return models.Quantification{QuantifierID: quantifier, Kind: kind, Score: score, DuplicateOf: dupOf}
}

func resolve(t *testing.T, items []models.PraiseItem) duplicates.Resolution {
	t.Helper()
	res, err := duplicates.Resolve(items)
	require.NoError(t, err)
	return res
}

func byID(results []models.ItemResult) map[string]models.ItemResult {
	out := make(map[string]models.ItemResult, len(results))
	for _, r := range results {
		out[r.PraiseID] = r
	}
	return out
}

// periodFixture covers the worked examples: I1 plain mean, I2 with a
// dismissal, I3 a duplicate of I1 and I4 never quantified.
func periodFixture() []models.PraiseItem {
	return []models.PraiseItem{
		{ID: "I1", ReceiverID: "alice", Quantifications: []models.Quantification{
			q("Q1", models.KindScored, 5, ""),
			q("Q2", models.KindScored, 3, ""),
		}},
		{ID: "I2", ReceiverID: "bob", Quantifications: []models.Quantification{
			q("Q1", models.KindDismissed, 0, ""),
			q("Q2", models.KindScored, 8, ""),
		}},
		{ID: "I3", ReceiverID: "alice", Quantifications: []models.Quantification{
			q("Q1", models.KindDuplicate, 0, "I1"),
			q("Q2", models.KindDuplicate, 0, "I1"),
			q("Q3", models.KindScored, 89, ""),
		}},
		{ID: "I4", ReceiverID: "carol", Quantifications: []models.Quantification{
			q("Q1", models.KindPending, 0, ""),
			q("Q2", models.KindPending, 0, ""),
		}},
	}
}

func TestAggregatePeriodScenarios(t *testing.T) {
	require := require.New(t)

	items := periodFixture()
	results, err := AggregatePeriod(items, resolve(t, items), defaultSettings)
	require.NoError(err)
	require.Len(results, 4)

	got := byID(results)
	require.Equal(4.0, got["I1"].CompositeScore)
	require.False(got["I1"].UnderQuantified)
	require.Equal("I1", got["I1"].DuplicateRoot)

	require.Equal(4.0, got["I2"].CompositeScore)

	require.Equal(0.4, got["I3"].CompositeScore)
	require.Equal("I1", got["I3"].DuplicateRoot)
	require.False(got["I3"].UnderQuantified)

	require.Equal(0.0, got["I4"].CompositeScore)
	require.True(got["I4"].UnderQuantified)
}

func TestAggregateDismissedOnlyIsUnderQuantified(t *testing.T) {
	it := models.PraiseItem{ID: "I1", Quantifications: []models.Quantification{
		q("Q1", models.KindDismissed, 0, ""),
		q("Q2", models.KindDismissed, 0, ""),
	}}
	r := Aggregate(it, resolve(t, []models.PraiseItem{it}), defaultSettings, 0)
	require.Equal(t, 0.0, r.CompositeScore)
	require.True(t, r.UnderQuantified)
}

func TestAggregateRoundsToPrecision(t *testing.T) {
	require := require.New(t)

	it := models.PraiseItem{ID: "I1", Quantifications: []models.Quantification{
		q("Q1", models.KindScored, 1, ""),
		q("Q2", models.KindScored, 1, ""),
		q("Q3", models.KindScored, 2, ""),
	}}
	res := resolve(t, []models.PraiseItem{it})

	require.Equal(1.33, Aggregate(it, res, defaultSettings, 0).CompositeScore)

	s := defaultSettings
	s.Precision = 0
	require.Equal(1.0, Aggregate(it, res, s, 0).CompositeScore)
}

func TestAggregateMinorityDuplicateVoteIsIgnored(t *testing.T) {
	items := []models.PraiseItem{
		{ID: "I1", Quantifications: []models.Quantification{q("Q1", models.KindScored, 5, "")}},
		{ID: "I2", Quantifications: []models.Quantification{
			q("Q1", models.KindDuplicate, 0, "I1"),
			q("Q2", models.KindScored, 3, ""),
			q("Q3", models.KindScored, 5, ""),
		}},
	}
	results, err := AggregatePeriod(items, resolve(t, items), defaultSettings)
	require.NoError(t, err)
	require.Equal(t, 4.0, byID(results)["I2"].CompositeScore)
}

func TestAggregatePeriodIsOrderIndependent(t *testing.T) {
	items := periodFixture()
	want, err := AggregatePeriod(items, resolve(t, items), defaultSettings)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 20; i++ {
		shuffled := periodFixture()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		for k := range shuffled {
			qs := shuffled[k].Quantifications
			rng.Shuffle(len(qs), func(a, b int) { qs[a], qs[b] = qs[b], qs[a] })
		}

		got, err := AggregatePeriod(shuffled, resolve(t, shuffled), defaultSettings)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestAggregatePeriodMissingRoot(t *testing.T) {
	items := []models.PraiseItem{{ID: "I2"}}
	res := duplicates.Resolution{Roots: map[string]string{"I2": "I1"}}
	_, err := AggregatePeriod(items, res, defaultSettings)
	require.ErrorIs(t, err, ErrRootNotScored)
}

func TestSummarizeReceivers(t *testing.T) {
	require := require.New(t)

	items := periodFixture()
	report, err := Results("p1", items, resolve(t, items), defaultSettings)
	require.NoError(err)
	require.Equal("p1", report.PeriodID)

	require.Equal([]models.ReceiverSummary{
		{ReceiverID: "alice", PraiseCount: 2, TotalScore: 4.4, Rank: 1},
		{ReceiverID: "bob", PraiseCount: 1, TotalScore: 4.0, Rank: 2},
		{ReceiverID: "carol", PraiseCount: 1, TotalScore: 0, Rank: 3},
	}, report.Receivers)
}

func TestSummarizeReceiversTieBreak(t *testing.T) {
	out := SummarizeReceivers([]models.ItemResult{
		{PraiseID: "a", ReceiverID: "zed", CompositeScore: 2},
		{PraiseID: "b", ReceiverID: "amy", CompositeScore: 2},
		{PraiseID: "c", ReceiverID: "kim", CompositeScore: 1},
		{PraiseID: "d", ReceiverID: "kim", CompositeScore: 1},
	}, 2)
	require.Equal(t, []string{"kim", "amy", "zed"}, []string{out[0].ReceiverID, out[1].ReceiverID, out[2].ReceiverID})
}

func TestPartitionSkipsPending(t *testing.T) {
	got := Partition([]models.Quantification{
		q("Q1", models.KindScored, 3, ""),
		q("Q2", models.KindScored, 5, ""),
		q("Q3", models.KindDismissed, 0, ""),
		q("Q4", models.KindDuplicate, 0, "x"),
		q("Q5", models.KindPending, 0, ""),
	})
	require.Equal(t, Tally{Scored: 2, Dismissed: 1, Duplicate: 1, Sum: 8}, got)
}
