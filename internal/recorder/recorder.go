package recorder

import (
	"time"

	"InflectionTracker/internal/model"
)

// Run status values.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunRecord holds everything produced by one tracker run.
type RunRecord struct {
	ID          string
	Symbol      string
	Source      string
	StartedAt   time.Time
	FinishedAt  time.Time
	RangeStart  time.Time
	RangeEnd    time.Time
	PricePoints int
	Window      int
	Threshold   string
	MinDistance int
	Inflections []model.InflectionPoint
	Grouping    model.Grouping
	Crossover   *model.CrossoverResult
	Status      string
	Error       string
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	// LatestInflections returns the inflections of the most recent successful
	// run for symbol, or nil when there is none.
	LatestInflections(symbol string) ([]model.InflectionPoint, error)
	Close() error
}
