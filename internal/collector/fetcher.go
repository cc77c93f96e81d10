package collector

import (
	"context"

	"InflectionTracker/internal/model"
)

// Fetcher defines the interface for fetching a monthly close-price series.
type Fetcher interface {
	FetchMonthlyCloses(ctx context.Context, symbol string) ([]model.PricePoint, error)
	Name() string
}
