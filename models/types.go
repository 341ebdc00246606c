// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"time"
)

// Period status constants
const (
	StatusOpen     = "open"
	StatusQuantify = "quantify"
	StatusClosed   = "closed"
)

// Quantification kinds. Pending rows are created by assignment and carry no
// judgment until the quantifier submits one.
const (
	KindPending   = "pending"
	KindScored    = "scored"
	KindDismissed = "dismissed"
	KindDuplicate = "duplicate"
)

// Setting value types
const (
	SettingInteger     = "Integer"
	SettingFloat       = "Float"
	SettingBoolean     = "Boolean"
	SettingString      = "String"
	SettingList        = "List"
	SettingIntegerList = "IntegerList"
)

var (
	ErrEmptyJudgment     = errors.New("judgment must set exactly one of score, dismissed, duplicate_of")
	ErrAmbiguousJudgment = errors.New("judgment sets more than one of score, dismissed, duplicate_of")
)

// Request types

type CreatePeriodRequest struct {
	Name    string    `json:"name"`
	EndDate time.Time `json:"end_date"`
}

type CreatePraiseRequest struct {
	GiverID    string `json:"giver_id"`
	ReceiverID string `json:"receiver_id"`
	Reason     string `json:"reason"`
	SourceID   string `json:"source_id"`
}

type StartQuantificationRequest struct {
	Quantifiers []string `json:"quantifiers"`
	Seed        *int64   `json:"seed,omitempty"`
}

// Score, Dismissed and DuplicateOf are mutually exclusive.
type SubmitQuantificationRequest struct {
	Score       *int   `json:"score,omitempty"`
	Dismissed   bool   `json:"dismissed,omitempty"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

type PutSettingRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Response types

type CreatePeriodResponse struct {
	PeriodID string `json:"period_id"`
	AdminKey string `json:"admin_key"`
}

type CreatePraiseResponse struct {
	PraiseID string `json:"praise_id"`
}

type StartQuantificationResponse struct {
	Status      string              `json:"status"`
	Seed        int64               `json:"seed"`
	Assignments map[string][]string `json:"assignments"` // quantifier_id -> praise ids
}

type SubmitQuantificationResponse struct {
	PraiseID     string `json:"praise_id"`
	QuantifierID string `json:"quantifier_id"`
	Kind         string `json:"kind"`
}

type ClosePeriodResponse struct {
	ClosedAt time.Time     `json:"closed_at"`
	Results  PeriodResults `json:"results"`
}

// Domain types

type Period struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	EndDate        time.Time  `json:"end_date"`
	Version        int64      `json:"version"`
	AssignmentSeed *int64     `json:"assignment_seed,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

type PraiseItem struct {
	ID              string           `json:"id"`
	PeriodID        string           `json:"period_id"`
	GiverID         string           `json:"giver_id"`
	ReceiverID      string           `json:"receiver_id"`
	Reason          string           `json:"reason"`
	SourceID        string           `json:"source_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Quantifications []Quantification `json:"quantifications,omitempty"`

	// Set when the period closes
	CompositeScore  *float64 `json:"composite_score,omitempty"`
	UnderQuantified bool     `json:"under_quantified"`
	DuplicateRoot   string   `json:"duplicate_root,omitempty"`
}

// IsParticipant reports whether userID gave or received the praise.
func (p PraiseItem) IsParticipant(userID string) bool {
	return p.GiverID == userID || p.ReceiverID == userID
}

type Quantification struct {
	PraiseID     string    `json:"praise_id"`
	QuantifierID string    `json:"quantifier_id"`
	Kind         string    `json:"kind"`
	Score        int       `json:"score"`
	DuplicateOf  string    `json:"duplicate_of,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Submitted reports whether the quantifier has judged the item.
func (q Quantification) Submitted() bool {
	return q.Kind != KindPending && q.Kind != ""
}

// Judgment is one quantifier's decision on a praise item.
type Judgment struct {
	Kind        string
	Score       int
	DuplicateOf string
}

func Scored(score int) Judgment { return Judgment{Kind: KindScored, Score: score} }
func Dismissed() Judgment { return Judgment{Kind: KindDismissed} }
func DuplicateOf(target string) Judgment { return Judgment{Kind: KindDuplicate, DuplicateOf: target} }

// Validate checks that exactly the field belonging to Kind is set.
func (j Judgment) Validate() error {
	switch j.Kind {
	case KindScored:
		if j.DuplicateOf != "" {
			return ErrAmbiguousJudgment
		}
	case KindDismissed:
		if j.Score != 0 || j.DuplicateOf != "" {
			return ErrAmbiguousJudgment
		}
	case KindDuplicate:
		if j.DuplicateOf == "" {
			return ErrEmptyJudgment
		}
		if j.Score != 0 {
			return ErrAmbiguousJudgment
		}
	default:
		return ErrEmptyJudgment
	}
	return nil
}

// JudgmentFromRequest maps the wire request onto a tagged Judgment.
func JudgmentFromRequest(req SubmitQuantificationRequest) (Judgment, error) {
	set := 0
	var j Judgment
	if req.Score != nil {
		set++
		j = Scored(*req.Score)
	}
	if req.Dismissed {
		set++
		j = Dismissed()
	}
	if req.DuplicateOf != "" {
		set++
		j = DuplicateOf(req.DuplicateOf)
	}
	switch {
	case set == 0:
		return Judgment{}, ErrEmptyJudgment
	case set > 1:
		return Judgment{}, ErrAmbiguousJudgment
	}
	return j, nil
}

type QuantifierPool struct {
	PeriodID    string              `json:"period_id"`
	Quantifiers []string            `json:"quantifiers"`
	Assigned    map[string][]string `json:"assigned"` // quantifier_id -> praise ids
}

// Setting is a raw key/value row. PeriodID is empty for global settings.
type Setting struct {
	Key      string `json:"key" yaml:"key"`
	PeriodID string `json:"period_id,omitempty" yaml:"-"`
	Value    string `json:"value" yaml:"value"`
	Type     string `json:"type" yaml:"type"`
}

type ScoringSettings struct {
	DuplicateDampening    float64 `json:"duplicate_dampening"`
	AllowedScores         []int   `json:"allowed_scores"`
	MinQuantifiersPerItem int     `json:"min_quantifiers_per_item"`
	Precision             int     `json:"precision"`
}

// Result types

type ItemResult struct {
	PraiseID        string  `json:"praise_id"`
	ReceiverID      string  `json:"receiver_id"`
	CompositeScore  float64 `json:"composite_score"`
	UnderQuantified bool    `json:"under_quantified"`
	DuplicateRoot   string  `json:"duplicate_root"`
}

type ReceiverSummary struct {
	ReceiverID  string  `json:"receiver_id"`
	PraiseCount int     `json:"praise_count"`
	TotalScore  float64 `json:"total_score"`
	Rank        int     `json:"rank"` // 1-indexed ranking
}

type PeriodResults struct {
	PeriodID  string            `json:"period_id"`
	Items     []ItemResult      `json:"items"`
	Receivers []ReceiverSummary `json:"receivers"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
