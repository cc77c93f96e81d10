package main

import (
	"fmt"

	"InflectionTracker/internal/calculator"
	"InflectionTracker/internal/model"
	"InflectionTracker/internal/notifier"
	"InflectionTracker/internal/store"
	"InflectionTracker/internal/tracker"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long:  `Fetches prices, detects inflections, associates news, writes both JSON outputs, records the run and sends the summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newTracker()
		if err != nil {
			return err
		}
		defer t.Close()

		res, err := t.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(notifier.FormatRunReport(&notifier.RunSummary{
			Symbol:      t.Symbol(),
			Source:      t.Collector.Fetcher.Name(),
			Series:      res.Series,
			Inflections: res.Inflections,
			New:         res.New,
			Grouping:    res.Grouping,
			Crossover:   &res.Crossover,
		}))
		fmt.Printf("\n%s\n%s\n", res.InflectionsFile, res.GroupingFile)
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect inflection points and write them to the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newTracker()
		if err != nil {
			return err
		}
		defer t.Close()

		_, points, err := t.Detect(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range points {
			fmt.Println(notifier.FormatInflection(p))
		}
		fmt.Printf("\n%d inflections written to %s\n", len(points), store.InflectionsFile(cfg.Output.Dir, t.Symbol()))
		return nil
	},
}

var crossoverCmd = &cobra.Command{
	Use:   "crossover",
	Short: "Search the moving-average pair with the most crossovers",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newTracker()
		if err != nil {
			return err
		}
		defer t.Close()

		series, err := t.Collector.Collect(cmd.Context())
		if err != nil {
			return err
		}
		best := calculator.FindBestMAPeriods(calculator.Closes(series))
		fmt.Printf("%s %s ~ %s (%d months)\n", series.Symbol,
			series.Start().Format(model.DateLayout), series.End().Format(model.DateLayout), len(series.Points))
		fmt.Printf("best pair: MA%d / MA%d, %d crossovers\n", best.ShortPeriod, best.LongPeriod, best.Crossovers)
		for _, period := range []int{best.ShortPeriod, best.LongPeriod} {
			if v, err := calculator.CurrentSMA(series, period); err == nil {
				fmt.Printf("current MA%d: %s\n", period, v.StringFixed(2))
			}
		}
		return nil
	},
}

func newTracker() (*tracker.Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return tracker.New(cfg)
}
