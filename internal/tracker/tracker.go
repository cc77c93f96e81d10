// Package tracker runs the end-to-end pipeline for one symbol: fetch the
// monthly series, detect inflections, gather and associate news, persist the
// results and report.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"InflectionTracker/internal/calculator"
	"InflectionTracker/internal/collector"
	"InflectionTracker/internal/indexer"
	"InflectionTracker/internal/inflection"
	"InflectionTracker/internal/model"
	"InflectionTracker/internal/notifier"
	"InflectionTracker/internal/recorder"
	"InflectionTracker/internal/store"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// ErrRunInProgress is returned when Run is called while another run holds the tracker.
var ErrRunInProgress = errors.New("a run is already in progress")

// Result is the outcome of a successful run.
type Result struct {
	RunID       string
	Series      *model.PriceSeries
	Inflections []model.InflectionPoint
	// New lists inflections not present in the previous successful run.
	New             []model.InflectionPoint
	Grouping        model.Grouping
	Crossover       model.CrossoverResult
	InflectionsFile string
	GroupingFile    string
}

// Tracker wires the pipeline stages together.
type Tracker struct {
	Collector  *collector.Collector
	Detector   *inflection.Detector
	Associator *indexer.Associator
	News       NewsProvider
	Recorder   recorder.Recorder
	Notifier   notifier.Notifier
	OutputDir  string
	Now        func() time.Time

	mu sync.Mutex
}

// Symbol returns the tracked symbol.
func (t *Tracker) Symbol() string { return t.Collector.Symbol }

// Detect fetches the series, finds its inflections and writes them to the
// output directory.
func (t *Tracker) Detect(ctx context.Context) (*model.PriceSeries, []model.InflectionPoint, error) {
	series, err := t.Collector.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	points := t.Detector.Detect(series)
	if err := store.SaveInflections(store.InflectionsFile(t.OutputDir, t.Symbol()), points); err != nil {
		return nil, nil, err
	}
	log.Info().Str("symbol", t.Symbol()).Int("inflections", len(points)).Msg("inflections detected")
	return series, points, nil
}

// Run executes one full pipeline pass. Runs never overlap; a concurrent
// call returns ErrRunInProgress.
func (t *Tracker) Run(ctx context.Context) (*Result, error) {
	if !t.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer t.mu.Unlock()

	run := &recorder.RunRecord{
		ID:          uuid.NewString(),
		Symbol:      t.Symbol(),
		Source:      t.Collector.Fetcher.Name(),
		StartedAt:   t.now(),
		Window:      t.Detector.Config().Window,
		Threshold:   t.Detector.Config().Threshold.String(),
		MinDistance: t.Detector.Config().MinDistance,
	}
	log.Info().Str("run_id", run.ID).Str("symbol", run.Symbol).Msg("run started")

	res, err := t.run(ctx, run)
	run.FinishedAt = t.now()
	if err != nil {
		run.Status = recorder.StatusFailed
		run.Error = err.Error()
		t.record(run)
		log.Error().Err(err).Str("run_id", run.ID).Msg("run failed")
		t.trySend(ctx, fmt.Sprintf("❌ %s 运行失败: %v", run.Symbol, err))
		return nil, err
	}

	// Compare before this run is recorded so it does not shadow the previous one.
	previous, err := t.Recorder.LatestInflections(run.Symbol)
	if err != nil {
		log.Warn().Err(err).Msg("load previous inflections")
	}
	res.New = newSince(previous, res.Inflections)

	run.Status = recorder.StatusOK
	t.record(run)

	t.trySend(ctx, notifier.FormatRunReport(&notifier.RunSummary{
		Symbol:      run.Symbol,
		Source:      run.Source,
		Series:      res.Series,
		Inflections: res.Inflections,
		New:         res.New,
		Grouping:    res.Grouping,
		Crossover:   &res.Crossover,
	}))
	log.Info().Str("run_id", run.ID).Int("inflections", len(res.Inflections)).
		Int("new", len(res.New)).Int("groups", len(res.Grouping)).Msg("run finished")
	return res, nil
}

func (t *Tracker) run(ctx context.Context, run *recorder.RunRecord) (*Result, error) {
	series, points, err := t.Detect(ctx)
	if err != nil {
		return nil, err
	}
	run.PricePoints = len(series.Points)
	run.RangeStart, run.RangeEnd = series.Start(), series.End()
	run.Inflections = points

	crossover := calculator.FindBestMAPeriods(calculator.Closes(series))
	run.Crossover = &crossover

	records, err := t.News.Load(ctx, run.Symbol, points)
	if err != nil {
		return nil, fmt.Errorf("load news from %s: %w", t.News.Name(), err)
	}
	grouping, err := t.Associator.Associate(records, points)
	if err != nil {
		return nil, fmt.Errorf("associate news: %w", err)
	}
	run.Grouping = grouping

	groupingFile := store.GroupingFile(t.OutputDir, run.Symbol)
	if err := store.SaveGrouping(groupingFile, grouping); err != nil {
		return nil, err
	}
	log.Info().Str("source", t.News.Name()).Int("records", len(records)).
		Int("matched", grouping.NewsCount()).Msg("news associated")

	return &Result{
		RunID:           run.ID,
		Series:          series,
		Inflections:     points,
		Grouping:        grouping,
		Crossover:       crossover,
		InflectionsFile: store.InflectionsFile(t.OutputDir, run.Symbol),
		GroupingFile:    groupingFile,
	}, nil
}

// Close waits for a run in progress, then releases the recorder.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Recorder.Close()
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) record(run *recorder.RunRecord) {
	if err := t.Recorder.RecordRun(run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("record run")
	}
}

func (t *Tracker) trySend(ctx context.Context, text string) {
	if err := t.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// newSince returns the points of current whose dates do not appear in previous.
func newSince(previous, current []model.InflectionPoint) []model.InflectionPoint {
	known := make(map[string]bool, len(previous))
	for _, p := range previous {
		known[p.DateString()] = true
	}
	var out []model.InflectionPoint
	for _, p := range current {
		if !known[p.DateString()] {
			out = append(out, p)
		}
	}
	return out
}

// AssociateFiles groups the news in newsPath around the inflections stored
// in inflectionsPath and writes the grouping to outPath.
func AssociateFiles(inflectionsPath, newsPath, outPath string, policy indexer.UnmatchedPolicy) (model.Grouping, error) {
	points, err := store.LoadInflections(inflectionsPath)
	if err != nil {
		return nil, err
	}
	records, err := newsFromFile(newsPath)
	if err != nil {
		return nil, err
	}
	grouping, err := indexer.NewAssociator(policy).Associate(records, points)
	if err != nil {
		return nil, fmt.Errorf("associate news: %w", err)
	}
	if err := store.SaveGrouping(outPath, grouping); err != nil {
		return nil, err
	}
	log.Info().Int("inflections", len(points)).Int("records", len(records)).
		Int("groups", len(grouping)).Str("out", outPath).Msg("news grouped by inflection")
	return grouping, nil
}

func newsFromFile(path string) ([]model.NewsRecord, error) {
	return FileNews{Path: path}.Load(context.Background(), "", nil)
}
