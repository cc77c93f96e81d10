package tracker

import (
	"fmt"

	"InflectionTracker/internal/alphavantage"
	"InflectionTracker/internal/collector"
	"InflectionTracker/internal/config"
	"InflectionTracker/internal/indexer"
	"InflectionTracker/internal/inflection"
	"InflectionTracker/internal/news"
	"InflectionTracker/internal/notifier"
	"InflectionTracker/internal/recorder"

	"github.com/phuslu/log"
)

// New assembles a Tracker from configuration. The caller owns Close.
func New(cfg *config.Config) (*Tracker, error) {
	det, err := inflection.NewDetector(cfg.DetectorConfig())
	if err != nil {
		return nil, err
	}

	var av *alphavantage.Client
	if cfg.DataSource.APIKey != "" {
		av = alphavantage.NewClient(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderAlphaVantage:
		fetcher = collector.NewAlphaVantageFetcher(av)
	case config.ProviderYahoo:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Years)
	default:
		return nil, fmt.Errorf("unsupported price provider %q", cfg.DataSource.Provider)
	}
	log.Info().Str("provider", fetcher.Name()).Msg("price source")

	window, err := cfg.WindowConfig()
	if err != nil {
		return nil, err
	}
	var np NewsProvider
	switch cfg.News.Provider {
	case config.ProviderFile:
		np = FileNews{Path: cfg.News.File}
	case config.ProviderAlphaVantage:
		np = WindowedNews{Source: &news.AlphaVantageSource{Client: av, Limit: cfg.News.Limit}, Window: window}
	default:
		np = NoNews{}
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	return &Tracker{
		Collector:  collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Years),
		Detector:   det,
		Associator: indexer.NewAssociator(cfg.Policy()),
		News:       np,
		Recorder:   rec,
		Notifier:   n,
		OutputDir:  cfg.Output.Dir,
	}, nil
}
