package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date layout used on every persisted date field.
const DateLayout = "2006-01-02"

var (
	ErrUnsortedSeries   = errors.New("price series is not in ascending date order")
	ErrDuplicateDate    = errors.New("price series contains a duplicate date")
	ErrNonPositivePrice = errors.New("price series contains a non-positive price")
)

// PricePoint is a single close price on a calendar date.
type PricePoint struct {
	Date  time.Time
	Price decimal.Decimal
}

// PriceSeries holds the close prices for one symbol, oldest first.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Prices returns the close prices in series order.
func (s *PriceSeries) Prices() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Start returns the first date of the series, or the zero time if empty.
func (s *PriceSeries) Start() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Date
}

// End returns the last date of the series, or the zero time if empty.
func (s *PriceSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// Validate checks the series is strictly ascending by calendar date and every
// price is positive.
func (s *PriceSeries) Validate() error {
	for i, p := range s.Points {
		if !p.Price.IsPositive() {
			return fmt.Errorf("%w: %s at %s", ErrNonPositivePrice, p.Price, p.Date.Format(DateLayout))
		}
		if i == 0 {
			continue
		}
		prev := s.Points[i-1].Date.Format(DateLayout)
		cur := p.Date.Format(DateLayout)
		switch {
		case prev == cur:
			return fmt.Errorf("%w: %s", ErrDuplicateDate, cur)
		case p.Date.Before(s.Points[i-1].Date):
			return fmt.Errorf("%w: %s after %s", ErrUnsortedSeries, cur, prev)
		}
	}
	return nil
}
