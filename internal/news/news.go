// Package news loads externally produced news records and derives the
// search windows around inflection points.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"InflectionTracker/internal/alphavantage"
	"InflectionTracker/internal/model"

	"github.com/phuslu/log"
)

// Source supplies news records for a symbol within a window.
type Source interface {
	Fetch(ctx context.Context, symbol string, window model.NewsWindow) ([]model.NewsRecord, error)
	Name() string
}

// WindowConfig positions the search window around an inflection date.
type WindowConfig struct {
	BeforeDays int
	AfterDays  int
	// Earliest skips inflections dated before it; zero disables it.
	Earliest time.Time
}

// DefaultWindowConfig searches two weeks before to one week after.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{BeforeDays: 14, AfterDays: 7}
}

// WindowFor returns the search window around p. ok is false when p is dated
// before the earliest supported news date.
func (c WindowConfig) WindowFor(p model.InflectionPoint) (model.NewsWindow, bool) {
	w := model.NewsWindow{
		Start: p.Date.AddDate(0, 0, -c.BeforeDays),
		End:   p.Date.AddDate(0, 0, c.AfterDays),
	}
	if !c.Earliest.IsZero() && p.Date.Before(c.Earliest) {
		return w, false
	}
	return w, true
}

// FilterFailed drops records the producing pipeline flagged with an error.
func FilterFailed(records []model.NewsRecord) []model.NewsRecord {
	out := make([]model.NewsRecord, 0, len(records))
	for _, r := range records {
		if !r.Failed {
			out = append(out, r)
		}
	}
	return out
}

// LoadFile reads a JSON array of news records and drops failed ones.
func LoadFile(path string) ([]model.NewsRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read news file: %w", err)
	}
	var records []model.NewsRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse news file %s: %w", path, err)
	}
	kept := FilterFailed(records)
	if dropped := len(records) - len(kept); dropped > 0 {
		log.Info().Str("file", path).Int("dropped", dropped).Msg("news records with errors filtered")
	}
	return kept, nil
}

// AlphaVantageSource fetches the NEWS_SENTIMENT feed.
type AlphaVantageSource struct {
	Client *alphavantage.Client
	Limit  int
}

func (s *AlphaVantageSource) Name() string { return "alphavantage" }

func (s *AlphaVantageSource) Fetch(ctx context.Context, symbol string, window model.NewsWindow) ([]model.NewsRecord, error) {
	feed, err := s.Client.News(ctx, symbol, window.Start, window.End, s.Limit)
	if err != nil {
		return nil, err
	}
	records := make([]model.NewsRecord, 0, len(feed))
	for _, a := range feed {
		date, err := a.PublishedDate()
		if err != nil {
			log.Warn().Err(err).Str("url", a.URL).Msg("skipping news article with bad timestamp")
			continue
		}
		rec, err := model.NewNewsRecord(date, map[string]any{
			"title":                   a.Title,
			"url":                     a.URL,
			"source":                  a.Source,
			"summary":                 a.Summary,
			"authors":                 a.Authors,
			"overall_sentiment_score": a.OverallSentimentScore,
			"overall_sentiment_label": a.OverallSentimentLabel,
			"ticker_sentiment":        a.TickerSentiment,
			"topics":                  a.Topics,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Collect fetches news for every inflection window and concatenates the
// results in inflection order, removing records seen in an earlier window.
func Collect(ctx context.Context, src Source, symbol string, points []model.InflectionPoint, cfg WindowConfig) ([]model.NewsRecord, error) {
	var out []model.NewsRecord
	seen := make(map[string]bool)
	for _, p := range points {
		w, ok := cfg.WindowFor(p)
		if !ok {
			log.Warn().Str("date", p.DateString()).Msg("skipping inflection before earliest news date")
			continue
		}
		records, err := src.Fetch(ctx, symbol, w)
		if err != nil {
			return nil, fmt.Errorf("fetch news for %s: %w", p.DateString(), err)
		}
		for _, r := range records {
			key := string(r.Payload)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
		log.Info().Str("date", p.DateString()).Str("source", src.Name()).Int("records", len(records)).Msg("news window fetched")
	}
	return out, nil
}
