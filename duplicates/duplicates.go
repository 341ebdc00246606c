// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package duplicates

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielhkuo/praise/models"
)

var ErrAmbiguousDuplicateStatus = errors.New("ambiguous duplicate status")

// AmbiguousError lists every item whose duplicate votes tie with its
// scored and dismissed votes.
type AmbiguousError struct {
	PraiseIDs []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAmbiguousDuplicateStatus, strings.Join(e.PraiseIDs, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguousDuplicateStatus }

// Resolution maps every item to itself or to the root of its duplicate component.
type Resolution struct {
	Roots map[string]string
	// Edges holds the voted duplicate_of target of each item treated as a duplicate.
	Edges map[string]string
}

// Root returns the root of id, or id itself if it was not part of the input.
func (r Resolution) Root(id string) string {
	if root, ok := r.Roots[id]; ok {
		return root
	}
	return id
}

// IsDuplicate reports whether id resolves to another item.
func (r Resolution) IsDuplicate(id string) bool {
	return r.Root(id) != id
}

// Vote tallies one item's submitted quantifications.
type Vote struct {
	Duplicate int
	Direct    int // scored or dismissed
	Targets   map[string]int
}

// Tally counts submitted judgments. Pending rows carry no vote.
func Tally(item models.PraiseItem) Vote {
	v := Vote{Targets: map[string]int{}}
	for _, q := range item.Quantifications {
		switch q.Kind {
		case models.KindDuplicate:
			v.Duplicate++
			v.Targets[q.DuplicateOf]++
		case models.KindScored, models.KindDismissed:
			v.Direct++
		}
	}
	return v
}

// Target returns the most voted duplicate_of; ties go to the smallest id.
func (v Vote) Target() string {
	best, bestN := "", 0
	for t, n := range v.Targets {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best
}

// Resolve builds the duplicate graph over items and labels each component.
//
// An item is a duplicate when its duplicate votes outnumber its direct
// votes. A tie fails the whole resolution with an *AmbiguousError. Edges to
// ids outside items are dropped, leaving the marked item as a root.
//
// In an acyclic component the root is the item without an outgoing edge. A
// component holding a cycle is rooted at the smallest id on the cycle.
func Resolve(items []models.PraiseItem) (Resolution, error) {
	ids := make([]string, 0, len(items))
	byID := make(map[string]models.PraiseItem, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; dup {
			continue
		}
		ids = append(ids, it.ID)
		byID[it.ID] = it
	}
	sort.Strings(ids)

	edges := map[string]string{}
	var ambiguous []string
	for _, id := range ids {
		v := Tally(byID[id])
		switch {
		case v.Duplicate == 0:
		case v.Duplicate == v.Direct:
			ambiguous = append(ambiguous, id)
		case v.Duplicate > v.Direct:
			target := v.Target()
			if _, known := byID[target]; known && target != id {
				edges[id] = target
			}
		}
	}
	if len(ambiguous) > 0 {
		return Resolution{}, &AmbiguousError{PraiseIDs: ambiguous}
	}

	uf := newUnionFind(ids)
	for _, id := range ids {
		if target, ok := edges[id]; ok {
			uf.union(id, target)
		}
	}

	// Each component has at most one node without an outgoing edge, and
	// exactly one cycle when no such node exists.
	components := map[string][]string{}
	for _, id := range ids {
		label := uf.find(id)
		components[label] = append(components[label], id)
	}

	roots := make(map[string]string, len(ids))
	for _, members := range components {
		root := componentRoot(members, edges)
		for _, id := range members {
			roots[id] = root
		}
	}

	return Resolution{Roots: roots, Edges: edges}, nil
}

// componentRoot expects members sorted.
func componentRoot(members []string, edges map[string]string) string {
	for _, id := range members {
		if _, ok := edges[id]; !ok {
			return id
		}
	}

	// Step len(members) times to be sure we are on the cycle.
	cur := members[0]
	for range members {
		cur = edges[cur]
	}
	root := cur
	for next := edges[cur]; next != cur; next = edges[next] {
		if next < root {
			root = next
		}
	}
	return root
}

type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(ids)),
		size:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
		uf.size[id] = 1
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
