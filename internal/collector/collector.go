package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"InflectionTracker/internal/model"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Points []model.PricePoint
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchMonthlyCloses(_ context.Context, _ string) ([]model.PricePoint, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.PricePoint, len(m.Points))
	copy(out, m.Points)
	return out, nil
}

// MonthlyPoints builds month-start points from prices, ending at end's month.
func MonthlyPoints(end time.Time, prices ...float64) []model.PricePoint {
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(len(prices) - 1), 0)
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Date: first.AddDate(0, i, 0), Price: decimal.NewFromFloat(p)}
	}
	return points
}

// Collector fetches a symbol's price history and trims it to the lookback window.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Years   int
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, years int) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Years: years, Now: time.Now}
}

// Cutoff is the earliest instant kept; points must fall strictly after it.
func (c *Collector) Cutoff() time.Time {
	return c.Now().Add(-time.Duration(c.Years) * 365 * 24 * time.Hour)
}

// Collect fetches the series, sorts it oldest first, drops points at or
// before the cutoff and validates the result.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	points, err := c.Fetcher.FetchMonthlyCloses(ctx, c.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly closes: %w", err)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if c.Years > 0 {
		cutoff := c.Cutoff()
		kept := points[:0]
		for _, p := range points {
			if p.Date.After(cutoff) {
				kept = append(kept, p)
			}
		}
		points = kept
	}

	series := &model.PriceSeries{Symbol: c.Symbol, Points: points, FetchedAt: c.Now()}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("price series %s: %w", c.Symbol, err)
	}
	log.Info().Str("symbol", c.Symbol).Str("source", c.Fetcher.Name()).
		Int("points", len(points)).Msg("price series collected")
	return series, nil
}
