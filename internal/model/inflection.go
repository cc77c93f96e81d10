package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells whether an inflection is a local peak or trough.
type Kind string

const (
	KindPeak    Kind = "peak"
	KindTrough  Kind = "trough"
	KindUnknown Kind = ""
)

// InflectionPoint is a significant local extremum in a price series.
// Prev* fields describe the raw predecessor in the series, not the previous
// inflection, and are nil when Index is 0.
type InflectionPoint struct {
	Date        time.Time
	Price       decimal.Decimal
	Index       int
	PrevDate    *time.Time
	PrevPrice   *decimal.Decimal
	PriceChange *decimal.Decimal
}

// DateString returns the inflection date as YYYY-MM-DD.
func (p InflectionPoint) DateString() string {
	return p.Date.Format(DateLayout)
}

// Kind derives peak/trough from the point-to-point change. A detected peak is
// always strictly above its predecessor and a trough strictly below.
func (p InflectionPoint) Kind() Kind {
	if p.PriceChange == nil {
		return KindUnknown
	}
	switch p.PriceChange.Sign() {
	case 1:
		return KindPeak
	case -1:
		return KindTrough
	}
	return KindUnknown
}

type inflectionJSON struct {
	Date        string       `json:"date"`
	Price       json.Number  `json:"price"`
	Index       int          `json:"index"`
	PrevDate    *string      `json:"prev_date"`
	PrevPrice   *json.Number `json:"prev_price"`
	PriceChange *json.Number `json:"price_change"`
}

func decimalNumber(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

func numberDecimal(n *json.Number) (*decimal.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MarshalJSON writes prices as JSON numbers carrying the exact decimal value.
func (p InflectionPoint) MarshalJSON() ([]byte, error) {
	out := inflectionJSON{
		Date:        p.DateString(),
		Price:       json.Number(p.Price.String()),
		Index:       p.Index,
		PrevPrice:   decimalNumber(p.PrevPrice),
		PriceChange: decimalNumber(p.PriceChange),
	}
	if p.PrevDate != nil {
		s := p.PrevDate.Format(DateLayout)
		out.PrevDate = &s
	}
	return json.Marshal(out)
}

func (p *InflectionPoint) UnmarshalJSON(data []byte) error {
	var in inflectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, in.Date)
	if err != nil {
		return fmt.Errorf("inflection date: %w", err)
	}
	price, err := decimal.NewFromString(in.Price.String())
	if err != nil {
		return fmt.Errorf("inflection price: %w", err)
	}
	out := InflectionPoint{Date: date, Price: price, Index: in.Index}
	if in.PrevDate != nil {
		pd, err := time.Parse(DateLayout, *in.PrevDate)
		if err != nil {
			return fmt.Errorf("inflection prev_date: %w", err)
		}
		out.PrevDate = &pd
	}
	if out.PrevPrice, err = numberDecimal(in.PrevPrice); err != nil {
		return fmt.Errorf("inflection prev_price: %w", err)
	}
	if out.PriceChange, err = numberDecimal(in.PriceChange); err != nil {
		return fmt.Errorf("inflection price_change: %w", err)
	}
	*p = out
	return nil
}

// NewsWindow is the date range searched for news around an inflection.
type NewsWindow struct {
	Start time.Time
	End   time.Time
}

// CrossoverResult is the best moving-average pair found by the crossover search.
type CrossoverResult struct {
	ShortPeriod int `json:"short_period"`
	LongPeriod  int `json:"long_period"`
	Crossovers  int `json:"crossovers"`
}
