// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/praise/models"
)

// Keys used by the scoring formula.
const (
	KeyDuplicateDampening = "PRAISE_QUANTIFY_DUPLICATE_PRAISE_PERCENTAGE"
	KeyAllowedScores      = "PRAISE_QUANTIFY_ALLOWED_VALUES"
	KeyQuantifiersPerItem = "QUANTIFIERS_PER_PRAISE"
	KeyScorePrecision     = "COMPOSITE_SCORE_PRECISION"
)

// ScoringKeys lists the settings frozen into a period when quantification starts.
var ScoringKeys = []string{
	KeyDuplicateDampening,
	KeyAllowedScores,
	KeyQuantifiersPerItem,
	KeyScorePrecision,
}

var (
	ErrSettingNotFound    = errors.New("setting not found")
	ErrInvalidSettingType = errors.New("invalid setting type")
	ErrInvalidSetting     = errors.New("setting value out of range")
)

// Source loads the raw settings visible to a period: every global row plus
// the period's overrides. An empty periodID loads global rows only.
type Source interface {
	LoadSettings(ctx context.Context, periodID string) ([]models.Setting, error)
}

type scopedKey struct {
	key      string
	periodID string
}

// Resolver answers setting lookups from a fixed snapshot of rows. Build one
// per operation; it never refreshes.
type Resolver struct {
	rows map[scopedKey]models.Setting
}

// NewResolver indexes rows by (key, period). Later rows win.
func NewResolver(rows []models.Setting) *Resolver {
	r := &Resolver{rows: make(map[scopedKey]models.Setting, len(rows))}
	for _, s := range rows {
		r.rows[scopedKey{s.Key, s.PeriodID}] = s
	}
	return r
}

// Load snapshots the settings visible to periodID from src.
func Load(ctx context.Context, src Source, periodID string) (*Resolver, error) {
	rows, err := src.LoadSettings(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return NewResolver(rows), nil
}

// Resolve returns the period override for key if present, else the global value.
func (r *Resolver) Resolve(key, periodID string) (Value, error) {
	if periodID != "" {
		if s, ok := r.rows[scopedKey{key, periodID}]; ok {
			return Value{raw: s}, nil
		}
	}
	if s, ok := r.rows[scopedKey{key, ""}]; ok {
		return Value{raw: s}, nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
}

// Value is a raw setting with typed decoders. Each decoder fails with
// ErrInvalidSettingType when the declared type does not match or the text
// cannot be parsed.
type Value struct {
	raw models.Setting
}

func (v Value) Raw() models.Setting { return v.raw }

func (v Value) typeErr(want string) error {
	return fmt.Errorf("%w: %s is %q, want %s", ErrInvalidSettingType, v.raw.Key, v.raw.Type, want)
}

func (v Value) parseErr(err error) error {
	return fmt.Errorf("%w: %s=%q: %v", ErrInvalidSettingType, v.raw.Key, v.raw.Value, err)
}

// The typed accessors require the row's declared type to match exactly.
func (v Value) Int() (int, error) {
	if v.raw.Type != models.SettingInteger {
		return 0, v.typeErr(models.SettingInteger)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.raw.Value))
	if err != nil {
		return 0, v.parseErr(err)
	}
	return n, nil
}

func (v Value) Float() (float64, error) {
	if v.raw.Type != models.SettingFloat {
		return 0, v.typeErr(models.SettingFloat)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw.Value), 64)
	if err != nil {
		return 0, v.parseErr(err)
	}
	return f, nil
}

func (v Value) Bool() (bool, error) {
	if v.raw.Type != models.SettingBoolean {
		return false, v.typeErr(models.SettingBoolean)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.raw.Value))
	if err != nil {
		return false, v.parseErr(err)
	}
	return b, nil
}

func (v Value) Text() (string, error) {
	if v.raw.Type != models.SettingString {
		return "", v.typeErr(models.SettingString)
	}
	return v.raw.Value, nil
}

// List splits a comma separated value, dropping blanks.
func (v Value) List() ([]string, error) {
	if v.raw.Type != models.SettingList {
		return nil, v.typeErr(models.SettingList)
	}
	return splitList(v.raw.Value), nil
}

func (v Value) IntList() ([]int, error) {
	if v.raw.Type != models.SettingIntegerList {
		return nil, v.typeErr(models.SettingIntegerList)
	}
	parts := splitList(v.raw.Value)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, v.parseErr(err)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that a raw setting decodes according to its declared type.
func Validate(s models.Setting) error {
	v := Value{raw: s}
	var err error
	switch s.Type {
	case models.SettingInteger:
		_, err = v.Int()
	case models.SettingFloat:
		_, err = v.Float()
	case models.SettingBoolean:
		_, err = v.Bool()
	case models.SettingString:
		_, err = v.Text()
	case models.SettingList:
		_, err = v.List()
	case models.SettingIntegerList:
		_, err = v.IntList()
	default:
		err = fmt.Errorf("%w: unknown type %q for %s", ErrInvalidSettingType, s.Type, s.Key)
	}
	return err
}

// LoadScoringSettings resolves and range-checks the scoring parameters for a period.
func LoadScoringSettings(r *Resolver, periodID string) (models.ScoringSettings, error) {
	var out models.ScoringSettings

	v, err := r.Resolve(KeyDuplicateDampening, periodID)
	if err != nil {
		return out, err
	}
	if out.DuplicateDampening, err = v.Float(); err != nil {
		return out, err
	}
	if out.DuplicateDampening <= 0 || out.DuplicateDampening > 1 {
		return out, fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrInvalidSetting, KeyDuplicateDampening, out.DuplicateDampening)
	}

	if v, err = r.Resolve(KeyAllowedScores, periodID); err != nil {
		return out, err
	}
	if out.AllowedScores, err = v.IntList(); err != nil {
		return out, err
	}
	if len(out.AllowedScores) == 0 {
		return out, fmt.Errorf("%w: %s is empty", ErrInvalidSetting, KeyAllowedScores)
	}

	if v, err = r.Resolve(KeyQuantifiersPerItem, periodID); err != nil {
		return out, err
	}
	if out.MinQuantifiersPerItem, err = v.Int(); err != nil {
		return out, err
	}
	if out.MinQuantifiersPerItem < 1 {
		return out, fmt.Errorf("%w: %s must be at least 1", ErrInvalidSetting, KeyQuantifiersPerItem)
	}

	if v, err = r.Resolve(KeyScorePrecision, periodID); err != nil {
		return out, err
	}
	if out.Precision, err = v.Int(); err != nil {
		return out, err
	}
	if out.Precision < 0 || out.Precision > 10 {
		return out, fmt.Errorf("%w: %s must be in [0, 10]", ErrInvalidSetting, KeyScorePrecision)
	}

	return out, nil
}

// Freeze returns period-scoped copies of the scoring rows currently visible
// to periodID, so later global edits do not leak into the period.
func Freeze(r *Resolver, periodID string) ([]models.Setting, error) {
	out := make([]models.Setting, 0, len(ScoringKeys))
	for _, key := range ScoringKeys {
		v, err := r.Resolve(key, periodID)
		if err != nil {
			return nil, err
		}
		s := v.Raw()
		s.PeriodID = periodID
		out = append(out, s)
	}
	return out, nil
}

// IsAllowed reports whether score is one of the allowed values.
func IsAllowed(s models.ScoringSettings, score int) bool {
	for _, v := range s.AllowedScores {
		if v == score {
			return true
		}
	}
	return false
}
