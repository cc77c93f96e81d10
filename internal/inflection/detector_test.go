package inflection

import (
	"encoding/json"
	"testing"
	"time"

	"InflectionTracker/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decs(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func monthlySeries(vals ...float64) *model.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Symbol: "TEST"}
	for i, p := range decs(vals...) {
		s.Points = append(s.Points, model.PricePoint{Date: start.AddDate(0, i, 0), Price: p})
	}
	return s
}

func mustDetector(t *testing.T, window int, threshold string, minDistance int) *Detector {
	t.Helper()
	d, err := NewDetector(Config{
		Window:      window,
		Threshold:   decimal.RequireFromString(threshold),
		MinDistance: minDistance,
	})
	require.NoError(t, err)
	return d
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"zero window", Config{Window: 0, Threshold: decimal.RequireFromString("0.05"), MinDistance: 1}, false},
		{"zero distance", Config{Window: 1, Threshold: decimal.RequireFromString("0.05"), MinDistance: 0}, false},
		{"zero threshold", Config{Window: 1, Threshold: decimal.Zero, MinDistance: 1}, false},
		{"threshold one", Config{Window: 1, Threshold: decimal.NewFromInt(1), MinDistance: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestFind_AlternatingSeries(t *testing.T) {
	d := mustDetector(t, 1, "0.05", 1)
	got := d.Find(decs(10, 20, 10, 20, 10))
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Contains(t, got, 1)
	assert.Contains(t, got, 3)
}

func TestFind_MonotonicSeriesHasNoInflections(t *testing.T) {
	d := mustDetector(t, 2, "0.01", 1)
	assert.Empty(t, d.Find(decs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)))
	assert.Empty(t, d.Find(decs(10, 9, 8, 7, 6, 5, 4, 3, 2, 1)))
}

func TestFind_ShortSeries(t *testing.T) {
	d := mustDetector(t, 3, "0.05", 2)
	assert.Empty(t, d.Find(decs(1, 5, 1, 5, 1, 5)))
	assert.Empty(t, d.Find(nil))
}

func TestCandidates_WindowTiesAllowedButNeighboursStrict(t *testing.T) {
	// index 2 ties the max two steps away: still a peak.
	assert.Equal(t, []int{2}, candidates(decs(5, 4, 5, 4, 3), 2))
	// equal immediate neighbour: a plateau is not a peak.
	assert.Empty(t, candidates(decs(1, 2, 5, 5, 2, 1), 2))
	// a higher point inside the window disqualifies.
	assert.Empty(t, candidates(decs(6, 4, 5, 4, 3), 2))
}

func TestFilter_MinDistance(t *testing.T) {
	prices := decs(10, 20, 10, 20, 10, 20, 10)
	cands := candidates(prices, 1)
	require.Equal(t, []int{1, 2, 3, 4, 5}, cands)

	got := filterCandidates(prices, cands, decimal.RequireFromString("0.05"), 2)
	// 2 is too close to 1, 3 has no change versus 1, 5 is too close to 4.
	assert.Equal(t, []int{1, 4}, got)

	got = filterCandidates(decs(10, 20, 10, 30, 10, 45, 10), []int{1, 3, 5}, decimal.RequireFromString("0.05"), 2)
	assert.Equal(t, []int{1, 3, 5}, got)
}

func TestFilter_ComparesAgainstLastAccepted(t *testing.T) {
	// 3 differs from 1 by 2.5% only and is dropped; 5 is then compared with 1.
	prices := decs(1, 100, 50, 102.5, 50, 120, 1)
	got := filterCandidates(prices, []int{1, 3, 5}, decimal.RequireFromString("0.05"), 1)
	assert.Equal(t, []int{1, 5}, got)
}

func TestFilter_ZeroLastAcceptedIsNotSignificant(t *testing.T) {
	prices := decs(5, 0, 5, 9, 5)
	got := filterCandidates(prices, []int{1, 3}, decimal.RequireFromString("0.05"), 1)
	assert.Equal(t, []int{1}, got)
}

func TestFractionalChange(t *testing.T) {
	c, ok := FractionalChange(decimal.NewFromInt(20), decimal.NewFromInt(10))
	require.True(t, ok)
	assert.True(t, c.Equal(decimal.RequireFromString("0.5")))

	_, ok = FractionalChange(decimal.Zero, decimal.NewFromInt(10))
	assert.False(t, ok)
}

func TestFind_Properties(t *testing.T) {
	prices := decs(50, 52, 61, 58, 47, 44, 49, 63, 70, 66, 55, 57, 51, 40, 42, 48, 60, 59, 72, 65, 64, 80, 77, 70)
	for _, minDistance := range []int{1, 2, 3, 4} {
		d := mustDetector(t, 1, "0.08", minDistance)
		got := d.Find(prices)
		for j := 1; j < len(got); j++ {
			assert.GreaterOrEqual(t, got[j]-got[j-1], minDistance)
			change, ok := FractionalChange(prices[got[j-1]], prices[got[j]])
			require.True(t, ok)
			assert.True(t, change.GreaterThanOrEqual(d.Config().Threshold), "index %d change %s", got[j], change)
		}
	}
}

func TestDetect_BuildsPointsAgainstRawPredecessor(t *testing.T) {
	d := mustDetector(t, 1, "0.05", 1)
	series := monthlySeries(10, 12, 20, 10, 20, 10)
	points := d.Detect(series)
	require.Len(t, points, 3)

	p := points[0]
	assert.Equal(t, 2, p.Index)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, p.PrevPrice)
	assert.True(t, p.PrevPrice.Equal(decimal.NewFromInt(12)))
	require.NotNil(t, p.PriceChange)
	assert.True(t, p.PriceChange.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, series.Points[1].Date, *p.PrevDate)
	assert.Equal(t, model.KindPeak, p.Kind())
	assert.Equal(t, model.KindTrough, points[1].Kind())
}

func TestInflectionPoint_JSONRoundTrip(t *testing.T) {
	d := mustDetector(t, 1, "0.05", 1)
	points := d.Detect(monthlySeries(10.25, 20.5, 10.125, 20, 10))
	first := model.InflectionPoint{
		Date:  time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		Price: decimal.RequireFromString("99.99"),
		Index: 0,
	}
	points = append([]model.InflectionPoint{first}, points...)

	raw, err := json.Marshal(points)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"prev_date":null,"prev_price":null,"price_change":null`)

	var back []model.InflectionPoint
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Len(t, back, len(points))
	for i := range points {
		want, got := points[i], back[i]
		assert.Equal(t, want.Index, got.Index)
		assert.True(t, want.Date.Equal(got.Date))
		assert.True(t, want.Price.Equal(got.Price))
		if want.PrevDate == nil {
			assert.Nil(t, got.PrevDate)
			assert.Nil(t, got.PrevPrice)
			assert.Nil(t, got.PriceChange)
			continue
		}
		assert.True(t, want.PrevDate.Equal(*got.PrevDate))
		assert.True(t, want.PrevPrice.Equal(*got.PrevPrice))
		assert.True(t, want.PriceChange.Equal(*got.PriceChange))
	}
}
