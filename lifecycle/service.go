// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/metrics"
	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/settings"
)

var (
	ErrPeriodNotFound = errors.New("period not found")
	ErrPraiseNotFound = errors.New("praise not found")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrInvalidPraise  = errors.New("invalid praise")

	ErrPeriodNotOpen                  = errors.New("period is not open")
	ErrInvalidTransition              = errors.New("invalid period transition")
	ErrAssignmentAlreadyExists        = errors.New("assignment already exists")
	ErrPeriodNotOpenForQuantification = errors.New("period is not open for quantification")
	ErrResultsSealed                  = errors.New("results are sealed until the period closes")

	ErrInvalidScore       = errors.New("score is not an allowed value")
	ErrSelfQuantification = errors.New("quantifier gave or received this praise")
	ErrNotAssigned        = errors.New("quantifier is not assigned to this praise")
	ErrInvalidDuplicate   = errors.New("invalid duplicate target")

	ErrVersionConflict    = errors.New("period version conflict")
	ErrPeriodLockConflict = errors.New("period lock conflict")
)

// DefaultCloseRetries is the number of extra close attempts after a version conflict.
const DefaultCloseRetries = 3

// Service runs the period lifecycle over a Store.
type Service struct {
	store        Store
	metrics      *metrics.Metrics
	closeRetries int

	now           func() time.Time
	idGenerator   func() string
	seedGenerator func() int64

	closes singleflight.Group
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCloseRetries sets how often a close is retried after a version conflict.
func WithCloseRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.closeRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.idGenerator = gen }
}

func WithSeedGenerator(gen func() int64) Option {
	return func(s *Service) { s.seedGenerator = gen }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		closeRetries:  DefaultCloseRetries,
		now:           func() time.Time { return time.Now().UTC() },
		idGenerator:   auth.NewID,
		seedGenerator: rand.Int64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePeriod creates an open period.
func (s *Service) CreatePeriod(ctx context.Context, req models.CreatePeriodRequest) (models.Period, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Period{}, fmt.Errorf("%w: name is required", ErrInvalidPeriod)
	}
	if len(name) > 200 {
		return models.Period{}, fmt.Errorf("%w: name must be 200 characters or less", ErrInvalidPeriod)
	}

	now := s.now()
	endDate := req.EndDate
	if !endDate.IsZero() && !endDate.After(now) {
		return models.Period{}, fmt.Errorf("%w: end_date must be in the future", ErrInvalidPeriod)
	}

	p := models.Period{
		ID:        s.idGenerator(),
		Name:      name,
		Status:    models.StatusOpen,
		EndDate:   endDate,
		CreatedAt: now,
	}
	if err := s.store.CreatePeriod(ctx, p); err != nil {
		return models.Period{}, fmt.Errorf("failed to create period: %w", err)
	}

	slog.Info("period created", "period_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (models.Period, error) {
	return s.store.LoadPeriod(ctx, periodID)
}

// CreatePraise records praise in an open period.
func (s *Service) CreatePraise(ctx context.Context, periodID string, req models.CreatePraiseRequest) (models.PraiseItem, error) {
	giver := strings.TrimSpace(req.GiverID)
	receiver := strings.TrimSpace(req.ReceiverID)
	reason := strings.TrimSpace(req.Reason)
	switch {
	case giver == "" || receiver == "":
		return models.PraiseItem{}, fmt.Errorf("%w: giver_id and receiver_id are required", ErrInvalidPraise)
	case reason == "":
		return models.PraiseItem{}, fmt.Errorf("%w: reason is required", ErrInvalidPraise)
	}

	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return models.PraiseItem{}, err
	}
	if p.Status != models.StatusOpen {
		return models.PraiseItem{}, fmt.Errorf("%w: period is %s", ErrPeriodNotOpen, p.Status)
	}

	item := models.PraiseItem{
		ID:         s.idGenerator(),
		PeriodID:   periodID,
		GiverID:    giver,
		ReceiverID: receiver,
		Reason:     reason,
		SourceID:   strings.TrimSpace(req.SourceID),
		CreatedAt:  s.now(),
	}
	if err := s.store.CreatePraise(ctx, item); err != nil {
		return models.PraiseItem{}, err
	}

	slog.Info("praise created", "period_id", periodID, "praise_id", item.ID)
	return item, nil
}

// ListPraise returns a period's praise. Quantifications are only included
// once the period has closed.
func (s *Service) ListPraise(ctx context.Context, periodID string) ([]models.PraiseItem, error) {
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.LoadPraiseItems(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load praise: %w", err)
	}
	if p.Status != models.StatusClosed {
		for i := range items {
			items[i].Quantifications = nil
		}
	}
	return items, nil
}

// ListSettings returns the raw rows visible to periodID; empty means global only.
func (s *Service) ListSettings(ctx context.Context, periodID string) ([]models.Setting, error) {
	if periodID != "" {
		if _, err := s.store.LoadPeriod(ctx, periodID); err != nil {
			return nil, err
		}
	}
	return s.store.LoadSettings(ctx, periodID)
}

// SetGlobalSetting validates and stores a global row.
func (s *Service) SetGlobalSetting(ctx context.Context, setting models.Setting) error {
	setting.PeriodID = ""
	if err := s.checkSetting(ctx, setting); err != nil {
		return err
	}
	if err := s.store.SaveSetting(ctx, setting); err != nil {
		return err
	}
	slog.Info("setting updated", "key", setting.Key)
	return nil
}

// SetPeriodSetting stores a period override. Only open periods accept them.
func (s *Service) SetPeriodSetting(ctx context.Context, periodID string, setting models.Setting) error {
	p, err := s.store.LoadPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if p.Status != models.StatusOpen {
		return fmt.Errorf("%w: settings are frozen once quantification starts", ErrPeriodNotOpen)
	}

	setting.PeriodID = periodID
	if err := s.checkSetting(ctx, setting); err != nil {
		return err
	}
	if err := s.store.SaveSetting(ctx, setting); err != nil {
		return err
	}
	slog.Info("period setting updated", "period_id", periodID, "key", setting.Key)
	return nil
}

// checkSetting decodes the row and, for scoring keys, range-checks the
// scoring settings as they would resolve with the row in place.
func (s *Service) checkSetting(ctx context.Context, setting models.Setting) error {
	if strings.TrimSpace(setting.Key) == "" {
		return fmt.Errorf("%w: key is required", settings.ErrInvalidSetting)
	}
	if err := settings.Validate(setting); err != nil {
		return err
	}
	if !slices.Contains(settings.ScoringKeys, setting.Key) {
		return nil
	}

	rows, err := s.store.LoadSettings(ctx, setting.PeriodID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	r := settings.NewResolver(append(rows, setting))
	_, err = settings.LoadScoringSettings(r, setting.PeriodID)
	if errors.Is(err, settings.ErrSettingNotFound) {
		// Other scoring keys may not be configured yet
		return nil
	}
	return err
}

func (s *Service) scoringSettings(ctx context.Context, periodID string) (models.ScoringSettings, *settings.Resolver, error) {
	r, err := settings.Load(ctx, s.store, periodID)
	if err != nil {
		return models.ScoringSettings{}, nil, err
	}
	scoring, err := settings.LoadScoringSettings(r, periodID)
	if err != nil {
		return models.ScoringSettings{}, nil, err
	}
	return scoring, r, nil
}
