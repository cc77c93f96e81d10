package collector

import (
	"context"

	"InflectionTracker/internal/alphavantage"
	"InflectionTracker/internal/model"
)

// AlphaVantageFetcher implements Fetcher using TIME_SERIES_MONTHLY.
type AlphaVantageFetcher struct {
	Client *alphavantage.Client
}

// NewAlphaVantageFetcher wraps an Alpha Vantage client.
func NewAlphaVantageFetcher(client *alphavantage.Client) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{Client: client}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

func (f *AlphaVantageFetcher) FetchMonthlyCloses(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	return f.Client.MonthlyCloses(ctx, symbol)
}
