package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"InflectionTracker/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)

func newTestCollector(f Fetcher, years int) *Collector {
	c := NewCollector(f, "OXY", years)
	c.Now = func() time.Time { return fixedNow }
	return c
}

func TestCollect_SortsAndTrimsToWindow(t *testing.T) {
	points := MonthlyPoints(fixedNow, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35)
	// reverse to prove the collector sorts
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	m := &MockFetcher{Points: points}

	series, err := newTestCollector(m, 1).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Calls)
	require.NotEmpty(t, series.Points)
	assert.True(t, series.Points[0].Date.After(fixedNow.AddDate(0, 0, -365)))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), series.End())
	assert.Len(t, series.Points, 12)
	assert.NoError(t, series.Validate())
}

func TestCollect_NoWindowKeepsEverything(t *testing.T) {
	m := &MockFetcher{Points: MonthlyPoints(fixedNow, 1, 2, 3)}
	series, err := newTestCollector(m, 0).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, series.Points, 3)
}

func TestCollect_FetchError(t *testing.T) {
	m := &MockFetcher{Err: errors.New("boom")}
	_, err := newTestCollector(m, 5).Collect(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestCollect_RejectsInvalidSeries(t *testing.T) {
	points := MonthlyPoints(fixedNow, 1, 2, 3)
	points[1].Price = decimal.Zero
	_, err := newTestCollector(&MockFetcher{Points: points}, 5).Collect(context.Background())
	assert.ErrorIs(t, err, model.ErrNonPositivePrice)

	points = MonthlyPoints(fixedNow, 1, 2, 3)
	points[2].Date = points[1].Date
	_, err = newTestCollector(&MockFetcher{Points: points}, 5).Collect(context.Background())
	assert.ErrorIs(t, err, model.ErrDuplicateDate)
}
