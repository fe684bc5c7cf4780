// Package rollup produces the daily fraud-case statistics.
package rollup

import (
	"context"
	"math"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/analytics-service/internal/repository"
	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"go.uber.org/zap"
)

const (
	DefaultSummaryDays = 14
	MaxSummaryDays     = 366
)

type Store interface {
	CountCases(ctx context.Context, date time.Time) (repository.DayTotals, error)
	Upsert(ctx context.Context, m *models.AggregatedMetric) error
	ListRecent(ctx context.Context, days int) ([]models.AggregatedMetric, error)
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Build turns one day's totals into a metric row. BLOCK decisions count as
// fraud; fraud rate is blocked over total.
func Build(date time.Time, t repository.DayTotals, createdAt time.Time) *models.AggregatedMetric {
	m := &models.AggregatedMetric{
		MetricDate:        truncateDay(date),
		TotalTransactions: t.Total,
		FraudCount:        t.Blocked,
		ReviewCount:       t.Reviewed,
		BlockCount:        t.Blocked,
		AvgRiskScore:      round4(t.AvgRiskScore),
		CreatedAt:         createdAt,
	}
	if t.Total > 0 {
		m.FraudRate = round4(float64(t.Blocked) / float64(t.Total))
	}
	return m
}

// ParseDate reads a YYYY-MM-DD date. Empty means yesterday.
func (s *Service) ParseDate(value string) (time.Time, error) {
	if value == "" {
		return s.Yesterday(), nil
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperrors.Validation("date must be YYYY-MM-DD, got %q", value)
	}
	return d, nil
}

func (s *Service) Yesterday() time.Time {
	return truncateDay(s.now().AddDate(0, 0, -1))
}

// Run aggregates date and stores the result. Re-running a date overwrites it.
func (s *Service) Run(ctx context.Context, date time.Time) (*models.AggregatedMetric, error) {
	totals, err := s.store.CountCases(ctx, date)
	if err != nil {
		return nil, err
	}
	m := Build(date, totals, s.now())
	if err := s.store.Upsert(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info("daily rollup stored",
		zap.String("date", m.MetricDate.Format(time.DateOnly)),
		zap.Int64("total", m.TotalTransactions),
		zap.Int64("blocked", m.BlockCount),
		zap.Int64("reviewed", m.ReviewCount),
		zap.Float64("fraud_rate", m.FraudRate),
	)
	return m, nil
}

func (s *Service) Summary(ctx context.Context, days int) ([]models.AggregatedMetric, error) {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	if days > MaxSummaryDays {
		days = MaxSummaryDays
	}
	return s.store.ListRecent(ctx, days)
}

// RunForever rolls up yesterday once at start and then on every tick.
func (s *Service) RunForever(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx, s.Yesterday()); err != nil {
			s.log.Warn("daily rollup failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
