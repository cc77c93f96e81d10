// Package inflection finds significant local extrema in a price series.
package inflection

import (
	"errors"
	"fmt"

	"InflectionTracker/internal/model"

	"github.com/shopspring/decimal"
)

var ErrInvalidConfig = errors.New("invalid detector config")

// Config controls candidate detection and filtering.
type Config struct {
	// Window is the number of neighbours compared on each side.
	Window int
	// Threshold is the minimum fractional change versus the last accepted point.
	Threshold decimal.Decimal
	// MinDistance is the minimum index gap between accepted points.
	MinDistance int
}

// DefaultConfig returns window 3, threshold 5%, min distance 2.
func DefaultConfig() Config {
	return Config{
		Window:      3,
		Threshold:   decimal.RequireFromString("0.05"),
		MinDistance: 2,
	}
}

// Validate checks the config ranges.
func (c Config) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("%w: window must be >= 1, got %d", ErrInvalidConfig, c.Window)
	}
	if c.MinDistance < 1 {
		return fmt.Errorf("%w: min_distance must be >= 1, got %d", ErrInvalidConfig, c.MinDistance)
	}
	if !c.Threshold.IsPositive() || c.Threshold.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: threshold must be in (0,1), got %s", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

// Detector is stateless; one instance may be shared across goroutines.
type Detector struct {
	cfg Config
}

// NewDetector validates cfg and returns a Detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect returns the inflection points of series in ascending index order.
// An empty result is valid.
func (d *Detector) Detect(series *model.PriceSeries) []model.InflectionPoint {
	prices := series.Prices()
	indices := d.Find(prices)
	out := make([]model.InflectionPoint, 0, len(indices))
	for _, k := range indices {
		out = append(out, buildPoint(series.Points, k))
	}
	return out
}

// Find returns the accepted indices into prices.
func (d *Detector) Find(prices []decimal.Decimal) []int {
	return filterCandidates(prices, candidates(prices, d.cfg.Window), d.cfg.Threshold, d.cfg.MinDistance)
}

// candidates scans [window, len-window) for local maxima and minima. Immediate
// neighbours must be strictly beaten; the wider window only has to be matched.
func candidates(prices []decimal.Decimal, window int) []int {
	n := len(prices)
	if window < 1 || n < 2*window+1 {
		return nil
	}
	var out []int
	for i := window; i < n-window; i++ {
		p := prices[i]
		leftMax, leftMin := extent(prices[i-window : i])
		rightMax, rightMin := extent(prices[i+1 : i+1+window])

		isMax := p.GreaterThan(prices[i-1]) && p.GreaterThan(prices[i+1]) &&
			p.GreaterThanOrEqual(leftMax) && p.GreaterThanOrEqual(rightMax)
		isMin := p.LessThan(prices[i-1]) && p.LessThan(prices[i+1]) &&
			p.LessThanOrEqual(leftMin) && p.LessThanOrEqual(rightMin)

		if isMax || isMin {
			out = append(out, i)
		}
	}
	return out
}

func extent(xs []decimal.Decimal) (hi, lo decimal.Decimal) {
	hi, lo = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.GreaterThan(hi) {
			hi = x
		}
		if x.LessThan(lo) {
			lo = x
		}
	}
	return hi, lo
}

// filterCandidates keeps candidates far enough from, and different enough
// from, the last accepted point. Rejected candidates are never revisited.
func filterCandidates(prices []decimal.Decimal, cands []int, threshold decimal.Decimal, minDistance int) []int {
	accepted := make([]int, 0, len(cands))
	for _, i := range cands {
		if len(accepted) == 0 {
			accepted = append(accepted, i)
			continue
		}
		last := accepted[len(accepted)-1]
		if i-last < minDistance {
			continue
		}
		change, ok := FractionalChange(prices[last], prices[i])
		if !ok || !change.GreaterThan(threshold) {
			continue
		}
		accepted = append(accepted, i)
	}
	return accepted
}

// FractionalChange returns abs((to-from)/from). ok is false when from is zero.
func FractionalChange(from, to decimal.Decimal) (change decimal.Decimal, ok bool) {
	if from.IsZero() {
		return decimal.Zero, false
	}
	return to.Sub(from).Div(from).Abs(), true
}

func buildPoint(points []model.PricePoint, k int) model.InflectionPoint {
	ip := model.InflectionPoint{
		Date:  points[k].Date,
		Price: points[k].Price,
		Index: k,
	}
	if k == 0 {
		return ip
	}
	prev := points[k-1]
	prevDate := prev.Date
	prevPrice := prev.Price
	change := points[k].Price.Sub(prev.Price)
	ip.PrevDate = &prevDate
	ip.PrevPrice = &prevPrice
	ip.PriceChange = &change
	return ip
}
