// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"sort"
	"sync"

	"github.com/danielhkuo/praise/models"
)

// memStore is an in-memory Store with the same version semantics as db.Store.
type memStore struct {
	mu       sync.Mutex
	periods  map[string]models.Period
	praise   map[string]models.PraiseItem
	quants   map[string]map[string]models.Quantification // praise -> quantifier
	pools    map[string][]string
	settings []models.Setting

	// beforeClose and beforeAssign run, without the lock held, at the start
	// of every SaveCompositeScores and SaveAssignment call.
	beforeClose  func()
	beforeAssign func()
	closes      int
}

func newMemStore(rows []models.Setting) *memStore {
	return &memStore{
		periods:  map[string]models.Period{},
		praise:   map[string]models.PraiseItem{},
		quants:   map[string]map[string]models.Quantification{},
		pools:    map[string][]string{},
		settings: append([]models.Setting(nil), rows...),
	}
}

func (m *memStore) LoadSettings(_ context.Context, periodID string) ([]models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Setting
	for _, s := range m.settings {
		if s.PeriodID == "" || (periodID != "" && s.PeriodID == periodID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) CreatePeriod(_ context.Context, p models.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	return nil
}

func (m *memStore) LoadPeriod(_ context.Context, id string) (models.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return models.Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (m *memStore) CreatePraise(_ context.Context, item models.PraiseItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.periods[item.PeriodID]
	if p.Status != models.StatusOpen {
		return ErrPeriodNotOpen
	}
	p.Version++
	m.periods[p.ID] = p
	m.praise[item.ID] = item
	return nil
}

func (m *memStore) withQuants(it models.PraiseItem) models.PraiseItem {
	it.Quantifications = nil
	for _, q := range m.quants[it.ID] {
		it.Quantifications = append(it.Quantifications, q)
	}
	sort.Slice(it.Quantifications, func(i, j int) bool {
		return it.Quantifications[i].QuantifierID < it.Quantifications[j].QuantifierID
	})
	return it
}

func (m *memStore) LoadPraise(_ context.Context, id string) (models.PraiseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.praise[id]
	if !ok {
		return models.PraiseItem{}, ErrPraiseNotFound
	}
	return m.withQuants(it), nil
}

func (m *memStore) LoadPraiseItems(_ context.Context, periodID string) ([]models.PraiseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PraiseItem
	for _, it := range m.praise {
		if it.PeriodID == periodID {
			out = append(out, m.withQuants(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) LoadPool(_ context.Context, periodID string) (models.QuantifierPool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool := models.QuantifierPool{
		PeriodID:    periodID,
		Quantifiers: append([]string(nil), m.pools[periodID]...),
		Assigned:    map[string][]string{},
	}
	for _, it := range m.praise {
		if it.PeriodID != periodID {
			continue
		}
		for q := range m.quants[it.ID] {
			pool.Assigned[q] = append(pool.Assigned[q], it.ID)
		}
	}
	for q := range pool.Assigned {
		sort.Strings(pool.Assigned[q])
	}
	return pool, nil
}

func (m *memStore) SaveAssignment(_ context.Context, w AssignmentWrite) error {
	if m.beforeAssign != nil {
		m.beforeAssign()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.periods[w.PeriodID]
	if p.Version != w.Version {
		return ErrVersionConflict
	}
	p.Status = w.Status
	seed := w.Seed
	p.AssignmentSeed = &seed
	p.Version++
	m.periods[p.ID] = p
	m.pools[p.ID] = append([]string(nil), w.Quantifiers...)

	for _, s := range w.Frozen {
		m.upsertSetting(s)
	}
	if w.ReplacePending {
		for praiseID, byQ := range m.quants {
			if m.praise[praiseID].PeriodID != p.ID {
				continue
			}
			for q, row := range byQ {
				if !row.Submitted() {
					delete(byQ, q)
				}
			}
		}
	}
	for _, q := range w.Pending {
		if m.quants[q.PraiseID] == nil {
			m.quants[q.PraiseID] = map[string]models.Quantification{}
		}
		m.quants[q.PraiseID][q.QuantifierID] = q
	}
	return nil
}

func (m *memStore) SaveQuantification(_ context.Context, periodID string, q models.Quantification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.periods[periodID]
	if p.Status != models.StatusQuantify {
		return ErrPeriodNotOpenForQuantification
	}
	if _, ok := m.quants[q.PraiseID][q.QuantifierID]; !ok || m.praise[q.PraiseID].PeriodID != periodID {
		return ErrNotAssigned
	}
	p.Version++
	m.periods[periodID] = p
	m.quants[q.PraiseID][q.QuantifierID] = q
	return nil
}

func (m *memStore) SaveCompositeScores(_ context.Context, w CloseWrite) error {
	if m.beforeClose != nil {
		m.beforeClose()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.periods[w.PeriodID]
	if p.Version != w.Version || p.Status != models.StatusQuantify {
		return ErrVersionConflict
	}
	p.Status = models.StatusClosed
	p.Version++
	closedAt := w.ClosedAt
	p.ClosedAt = &closedAt
	m.periods[p.ID] = p

	for _, r := range w.Results {
		it := m.praise[r.PraiseID]
		score := r.CompositeScore
		it.CompositeScore = &score
		it.UnderQuantified = r.UnderQuantified
		it.DuplicateRoot = r.DuplicateRoot
		m.praise[it.ID] = it
	}
	m.closes++
	return nil
}

func (m *memStore) SaveSetting(_ context.Context, s models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.PeriodID != "" {
		p := m.periods[s.PeriodID]
		if p.Status != models.StatusOpen {
			return ErrPeriodNotOpen
		}
		p.Version++
		m.periods[p.ID] = p
	}
	m.upsertSetting(s)
	return nil
}

func (m *memStore) upsertSetting(s models.Setting) {
	for i, row := range m.settings {
		if row.Key == s.Key && row.PeriodID == s.PeriodID {
			m.settings[i] = s
			return
		}
	}
	m.settings = append(m.settings, s)
}

func (m *memStore) status(periodID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.periods[periodID].Status
}

func (m *memStore) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
