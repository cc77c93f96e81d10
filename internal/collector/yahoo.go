package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"InflectionTracker/internal/model"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	// Years bounds how far back the chart request reaches.
	Years int
	Now   func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(years int) *YahooFetcher {
	return &YahooFetcher{
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Years: years,
		Now:   time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) FetchMonthlyCloses(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := f.Now()
	// one extra year so the collector's cutoff never trims a partial first month
	start := end.AddDate(-(f.Years + 1), 0, 0)

	iter := chart.Get(&chart.Params{
		Symbol:   f.yahooSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneMonth,
	})

	var points []model.PricePoint
	for iter.Next() {
		bar := iter.Bar()
		if !bar.Close.IsPositive() {
			continue // skip null bars
		}
		t := time.Unix(int64(bar.Timestamp), 0).UTC()
		points = append(points, model.PricePoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Price: bar.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
