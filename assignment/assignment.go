// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package assignment

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/danielhkuo/praise/models"
)

var (
	ErrInsufficientQuantifiers = errors.New("insufficient quantifiers")
	ErrInvalidPerItem          = errors.New("quantifiers per item must be at least 1")
)

// Request describes one assignment run.
type Request struct {
	Items       []models.PraiseItem
	Quantifiers []string
	PerItem     int
	Seed        int64

	// Existing maps praise id -> quantifiers that already submitted a
	// judgment. They count toward PerItem and toward their own load, and
	// are never moved.
	Existing map[string][]string
}

// Result holds the new assignments only. Loads include existing judgments.
type Result struct {
	ByPraise     map[string][]string
	ByQuantifier map[string][]string
	Loads        map[string]int
}

// Spread returns max-min load over the pool.
func (r Result) Spread() int {
	if len(r.Loads) == 0 {
		return 0
	}
	lo, hi := -1, 0
	for _, n := range r.Loads {
		if lo < 0 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi - lo
}

type state struct {
	items    []models.PraiseItem // processing order
	pool     []string            // tie-break order
	rank     map[string]int
	load     map[string]int
	holders  map[string]map[string]bool // praise -> quantifiers on it (new + existing)
	assigned map[string][]string        // praise -> new quantifiers, movable
}

// Assign gives every item PerItem distinct quantifiers from the pool, never
// the item's giver or receiver, keeping per-quantifier loads within one of
// each other whenever the exclusions allow it. Output depends only on the
// request, so the same seed reproduces the same assignment.
func Assign(req Request) (Result, error) {
	if req.PerItem < 1 {
		return Result{}, ErrInvalidPerItem
	}

	rng := rand.New(rand.NewPCG(uint64(req.Seed), uint64(req.Seed)^0x9e3779b97f4a7c15))

	pool := dedupe(req.Quantifiers)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	items := slices.Clone(req.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	s := &state{
		items:    items,
		pool:     pool,
		rank:     make(map[string]int, len(pool)),
		load:     make(map[string]int, len(pool)),
		holders:  make(map[string]map[string]bool, len(items)),
		assigned: make(map[string][]string, len(items)),
	}
	for i, q := range pool {
		s.rank[q] = i
		s.load[q] = 0
	}
	for _, it := range items {
		s.holders[it.ID] = map[string]bool{}
		for _, q := range req.Existing[it.ID] {
			s.holders[it.ID][q] = true
			if _, inPool := s.load[q]; inPool {
				s.load[q]++
			}
		}
	}

	if err := s.checkFeasible(req.PerItem); err != nil {
		return Result{}, err
	}

	s.greedy(req.PerItem)
	s.rebalance()

	return s.result(), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

func eligible(it models.PraiseItem, q string) bool {
	return !it.IsParticipant(q)
}

func (s *state) need(it models.PraiseItem, perItem int) int {
	return perItem - len(s.holders[it.ID])
}

func (s *state) candidates(it models.PraiseItem) []string {
	var out []string
	for _, q := range s.pool {
		if eligible(it, q) && !s.holders[it.ID][q] {
			out = append(out, q)
		}
	}
	return out
}

func (s *state) checkFeasible(perItem int) error {
	var short []string
	for _, it := range s.items {
		if n := s.need(it, perItem); n > 0 && len(s.candidates(it)) < n {
			short = append(short, it.ID)
		}
	}
	if len(short) > 0 {
		sort.Strings(short)
		return fmt.Errorf("%w: need %d per item, short on %s", ErrInsufficientQuantifiers, perItem, strings.Join(short, ", "))
	}
	return nil
}

// less orders quantifiers by load, then by shuffled rank.
func (s *state) less(a, b string) bool {
	if s.load[a] != s.load[b] {
		return s.load[a] < s.load[b]
	}
	return s.rank[a] < s.rank[b]
}

func (s *state) greedy(perItem int) {
	for _, it := range s.items {
		n := s.need(it, perItem)
		if n <= 0 {
			continue
		}
		cands := s.candidates(it)
		sort.Slice(cands, func(i, j int) bool { return s.less(cands[i], cands[j]) })
		for _, q := range cands[:n] {
			s.give(it.ID, q)
		}
	}
}

func (s *state) give(praiseID, q string) {
	s.holders[praiseID][q] = true
	s.assigned[praiseID] = append(s.assigned[praiseID], q)
	s.load[q]++
}

func (s *state) take(praiseID, q string) {
	delete(s.holders[praiseID], q)
	s.assigned[praiseID] = slices.DeleteFunc(s.assigned[praiseID], func(x string) bool { return x == q })
	s.load[q]--
}

type hop struct {
	from   string // quantifier giving up the item
	praise string
}

// rebalance repeatedly finds a chain low <- x1 <- ... <- high where each
// quantifier takes one movable item from the next, raising the low load and
// lowering the high one by one. Every chain lowers the sum of squared loads,
// so the loop terminates.
func (s *state) rebalance() {
	for {
		order := slices.Clone(s.pool)
		sort.Slice(order, func(i, j int) bool { return s.less(order[i], order[j]) })

		moved := false
		for _, low := range order {
			if path := s.findChain(low); path != nil {
				s.apply(low, path)
				moved = true
				break
			}
		}
		if !moved {
			return
		}
	}
}

func (s *state) findChain(low string) []hop {
	target := s.load[low] + 2
	parent := map[string]hop{}
	visited := map[string]bool{low: true}
	queue := []string{low}

	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]

		for _, it := range s.items {
			if !eligible(it, x) || s.holders[it.ID][x] {
				continue
			}
			for _, y := range s.assigned[it.ID] {
				if visited[y] {
					continue
				}
				visited[y] = true
				parent[y] = hop{from: x, praise: it.ID}
				if s.load[y] >= target {
					return s.walk(low, y, parent)
				}
				queue = append(queue, y)
			}
		}
	}
	return nil
}

// walk returns the hops from high back to low.
func (s *state) walk(low, high string, parent map[string]hop) []hop {
	var path []hop
	for y := high; y != low; {
		h := parent[y]
		path = append(path, hop{from: y, praise: h.praise})
		y = h.from
	}
	return path
}

func (s *state) apply(low string, path []hop) {
	// path[i].from gives path[i].praise to the next quantifier toward low
	for i, h := range path {
		to := low
		if i+1 < len(path) {
			to = path[i+1].from
		}
		s.take(h.praise, h.from)
		s.give(h.praise, to)
	}
}

func (s *state) result() Result {
	res := Result{
		ByPraise:     make(map[string][]string, len(s.assigned)),
		ByQuantifier: make(map[string][]string, len(s.pool)),
		Loads:        make(map[string]int, len(s.load)),
	}
	for praiseID, qs := range s.assigned {
		if len(qs) == 0 {
			continue
		}
		out := slices.Clone(qs)
		sort.Strings(out)
		res.ByPraise[praiseID] = out
		for _, q := range out {
			res.ByQuantifier[q] = append(res.ByQuantifier[q], praiseID)
		}
	}
	for q := range res.ByQuantifier {
		sort.Strings(res.ByQuantifier[q])
	}
	for q, n := range s.load {
		res.Loads[q] = n
	}
	return res
}
