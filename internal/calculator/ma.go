package calculator

import (
	"errors"

	"InflectionTracker/internal/model"

	"github.com/shopspring/decimal"
)

// Grid bounds for FindBestMAPeriods.
const (
	MinShortPeriod = 3
	MaxShortPeriod = 29
	MaxLongPeriod  = 49

	DefaultShortPeriod = 5
	DefaultLongPeriod  = 20
)

// SMASeries computes the simple moving average for every full window of
// period points. The result has len(prices)-period+1 values.
func SMASeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, errors.New("not enough data for SMA calculation")
	}
	out := make([]float64, 0, len(prices)-period+1)
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out, nil
}

// CountCrossovers aligns the two averages on their most recent values and
// counts sign changes of short-long. Moving onto or off zero counts.
func CountCrossovers(shortMA, longMA []float64) int {
	n := min(len(shortMA), len(longMA))
	shortMA = shortMA[len(shortMA)-n:]
	longMA = longMA[len(longMA)-n:]

	count := 0
	for i := 1; i < n; i++ {
		if sign(shortMA[i]-longMA[i]) != sign(shortMA[i-1]-longMA[i-1]) {
			count++
		}
	}
	return count
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// FindBestMAPeriods tries every short/long pair and keeps the one with the
// most crossovers. The first pair in ascending order wins ties. Pairs whose
// long period exceeds the series length are skipped.
func FindBestMAPeriods(prices []float64) model.CrossoverResult {
	best := model.CrossoverResult{ShortPeriod: DefaultShortPeriod, LongPeriod: DefaultLongPeriod}
	for short := MinShortPeriod; short <= MaxShortPeriod; short++ {
		shortMA, err := SMASeries(prices, short)
		if err != nil {
			break
		}
		for long := short + 1; long <= MaxLongPeriod; long++ {
			longMA, err := SMASeries(prices, long)
			if err != nil {
				break
			}
			if c := CountCrossovers(shortMA, longMA); c > best.Crossovers {
				best = model.CrossoverResult{ShortPeriod: short, LongPeriod: long, Crossovers: c}
			}
		}
	}
	return best
}

// Closes converts the series prices to float64 for the moving-average search.
func Closes(series *model.PriceSeries) []float64 {
	closes := make([]float64, len(series.Points))
	for i, p := range series.Points {
		closes[i] = p.Price.InexactFloat64()
	}
	return closes
}

// CurrentSMA returns the latest SMA value of the series as a decimal.
func CurrentSMA(series *model.PriceSeries, period int) (decimal.Decimal, error) {
	ma, err := SMASeries(Closes(series), period)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(ma[len(ma)-1]), nil
}
