package main

import (
	"fmt"

	"InflectionTracker/internal/indexer"
	"InflectionTracker/internal/store"
	"InflectionTracker/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	inflectionsPath string
	newsPath        string
	outPath         string
	policy          string
)

var associateCmd = &cobra.Command{
	Use:   "associate",
	Short: "Group a news file around previously detected inflections",
	Long: `Reads an inflection file and a news file, assigns every news record to the
inflection closest in calendar days and writes the grouping as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sym := cfg.DataSource.Symbol
		if inflectionsPath == "" {
			inflectionsPath = store.InflectionsFile(cfg.Output.Dir, sym)
		}
		if newsPath == "" {
			newsPath = cfg.News.File
		}
		if newsPath == "" {
			return fmt.Errorf("--news is required when news.file is not configured")
		}
		if outPath == "" {
			outPath = store.GroupingFile(cfg.Output.Dir, sym)
		}
		p := cfg.Policy()
		if policy != "" {
			var err error
			if p, err = indexer.ParsePolicy(policy); err != nil {
				return err
			}
		}

		g, err := tracker.AssociateFiles(inflectionsPath, newsPath, outPath, p)
		if err != nil {
			return err
		}
		for _, date := range g.Dates() {
			fmt.Printf("%s  %d news\n", date, len(g[date].News))
		}
		fmt.Printf("\n%d news grouped into %d inflections, written to %s\n", g.NewsCount(), len(g), outPath)
		return nil
	},
}

func init() {
	associateCmd.Flags().StringVar(&inflectionsPath, "inflections", "", "inflection JSON file (default <output>/inflection_points_<SYMBOL>.json)")
	associateCmd.Flags().StringVar(&newsPath, "news", "", "news JSON file (default news.file)")
	associateCmd.Flags().StringVar(&outPath, "out", "", "grouping output file (default <output>/news_by_inflection_<SYMBOL>.json)")
	associateCmd.Flags().StringVar(&policy, "policy", "", "unmatched record policy: drop or error")
}
