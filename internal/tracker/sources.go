package tracker

import (
	"context"

	"InflectionTracker/internal/model"
	"InflectionTracker/internal/news"
)

// NewsProvider supplies the news records to associate for one run.
type NewsProvider interface {
	Load(ctx context.Context, symbol string, points []model.InflectionPoint) ([]model.NewsRecord, error)
	Name() string
}

// FileNews reads a pre-collected news file.
type FileNews struct {
	Path string
}

func (f FileNews) Name() string { return "file" }

func (f FileNews) Load(_ context.Context, _ string, _ []model.InflectionPoint) ([]model.NewsRecord, error) {
	return news.LoadFile(f.Path)
}

// WindowedNews queries a news source around every inflection.
type WindowedNews struct {
	Source news.Source
	Window news.WindowConfig
}

func (w WindowedNews) Name() string { return w.Source.Name() }

func (w WindowedNews) Load(ctx context.Context, symbol string, points []model.InflectionPoint) ([]model.NewsRecord, error) {
	return news.Collect(ctx, w.Source, symbol, points, w.Window)
}

// NoNews skips the news stage; the grouping is always empty.
type NoNews struct{}

func (NoNews) Name() string { return "none" }

func (NoNews) Load(context.Context, string, []model.InflectionPoint) ([]model.NewsRecord, error) {
	return nil, nil
}
