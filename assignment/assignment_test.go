// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package assignment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/praise/models"
)

func users(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("u%d", i)
	}
	return out
}

// ring builds n praise items whose givers and receivers cycle through people.
func ring(n int, people []string) []models.PraiseItem {
	items := make([]models.PraiseItem, n)
	for j := range items {
		items[j] = models.PraiseItem{
			ID:         fmt.Sprintf("p%02d", j),
			GiverID:    people[j%len(people)],
			ReceiverID: people[(j+3)%len(people)],
		}
	}
	return items
}

func assertValid(t *testing.T, req Request, res Result) {
	t.Helper()

	byID := map[string]models.PraiseItem{}
	for _, it := range req.Items {
		byID[it.ID] = it
	}
	for _, it := range req.Items {
		qs := res.ByPraise[it.ID]
		require.Len(t, qs, req.PerItem-len(req.Existing[it.ID]), "praise %s", it.ID)

		seen := map[string]bool{}
		for _, q := range qs {
			require.False(t, seen[q], "quantifier %s assigned twice to %s", q, it.ID)
			seen[q] = true
			require.False(t, it.IsParticipant(q), "quantifier %s assigned to own praise %s", q, it.ID)
		}
	}

	total := 0
	for _, items := range res.ByQuantifier {
		total += len(items)
	}
	want := 0
	for _, it := range req.Items {
		want += req.PerItem - len(req.Existing[it.ID])
	}
	require.Equal(t, want, total)
}

func TestAssignBalancedWithoutExclusions(t *testing.T) {
	require := require.New(t)

	// Quantifiers never give or receive here
	items := ring(10, []string{"a", "b", "c", "d", "e"})
	req := Request{Items: items, Quantifiers: users(4), PerItem: 2, Seed: 42}

	res, err := Assign(req)
	require.NoError(err)
	assertValid(t, req, res)
	require.LessOrEqual(res.Spread(), 1)
	for _, q := range users(4) {
		require.Equal(5, res.Loads[q])
	}
}

func TestAssignBalancedWithExclusions(t *testing.T) {
	people := users(8)
	pool := people[:6]

	for _, tc := range []struct {
		items   int
		perItem int
	}{
		{24, 2},
		{25, 2},
		{17, 3},
		{40, 1},
		{9, 4},
	} {
		for seed := int64(0); seed < 5; seed++ {
			t.Run(fmt.Sprintf("n=%d/k=%d/seed=%d", tc.items, tc.perItem, seed), func(t *testing.T) {
				req := Request{Items: ring(tc.items, people), Quantifiers: pool, PerItem: tc.perItem, Seed: seed}
				res, err := Assign(req)
				require.NoError(t, err)
				assertValid(t, req, res)
				require.LessOrEqual(t, res.Spread(), 1, "loads %v", res.Loads)
			})
		}
	}
}

func TestAssignDeterministicForSeed(t *testing.T) {
	require := require.New(t)

	req := Request{Items: ring(20, users(7)), Quantifiers: users(5), PerItem: 2, Seed: 7}
	first, err := Assign(req)
	require.NoError(err)

	for i := 0; i < 5; i++ {
		again, err := Assign(req)
		require.NoError(err)
		require.Equal(first.ByPraise, again.ByPraise)
		require.Equal(first.ByQuantifier, again.ByQuantifier)
	}
}

func TestAssignIgnoresInputOrder(t *testing.T) {
	require := require.New(t)

	items := ring(12, users(6))
	reversed := make([]models.PraiseItem, len(items))
	for i, it := range items {
		reversed[len(items)-1-i] = it
	}
	pool := users(5)
	shuffledPool := []string{pool[3], pool[0], pool[4], pool[1], pool[2], pool[0]}

	a, err := Assign(Request{Items: items, Quantifiers: pool, PerItem: 2, Seed: 3})
	require.NoError(err)
	b, err := Assign(Request{Items: reversed, Quantifiers: shuffledPool, PerItem: 2, Seed: 3})
	require.NoError(err)
	require.Equal(a.ByPraise, b.ByPraise)
}

func TestAssignInsufficientQuantifiers(t *testing.T) {
	items := []models.PraiseItem{
		{ID: "p1", GiverID: "q1", ReceiverID: "q2"},
		{ID: "p2", GiverID: "x", ReceiverID: "y"},
	}
	_, err := Assign(Request{Items: items, Quantifiers: []string{"q1", "q2", "q3"}, PerItem: 2, Seed: 1})
	require.ErrorIs(t, err, ErrInsufficientQuantifiers)
	require.Contains(t, err.Error(), "p1")
}

func TestAssignEmptyPool(t *testing.T) {
	_, err := Assign(Request{Items: ring(1, users(3)), PerItem: 1})
	require.ErrorIs(t, err, ErrInsufficientQuantifiers)
}

func TestAssignInvalidPerItem(t *testing.T) {
	_, err := Assign(Request{PerItem: 0})
	require.ErrorIs(t, err, ErrInvalidPerItem)
}

func TestAssignNoItems(t *testing.T) {
	res, err := Assign(Request{Quantifiers: users(3), PerItem: 2})
	require.NoError(t, err)
	require.Empty(t, res.ByPraise)
	require.Equal(t, 0, res.Spread())
}

func TestAssignKeepsExistingJudgments(t *testing.T) {
	require := require.New(t)

	items := ring(6, []string{"a", "b", "c", "d"})
	existing := map[string][]string{
		"p00": {"u0", "u1"}, // fully covered
		"p01": {"u0"},
	}
	req := Request{Items: items, Quantifiers: users(4), PerItem: 2, Seed: 11, Existing: existing}

	res, err := Assign(req)
	require.NoError(err)
	assertValid(t, req, res)

	require.NotContains(res.ByPraise, "p00")
	require.Len(res.ByPraise["p01"], 1)
	require.NotEqual("u0", res.ByPraise["p01"][0])

	// Loads count the kept judgments: 12 slots over 4 quantifiers
	total := 0
	for _, n := range res.Loads {
		total += n
	}
	require.Equal(12, total)
	require.LessOrEqual(res.Spread(), 1)
}
