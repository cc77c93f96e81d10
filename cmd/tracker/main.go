package main

import (
	"fmt"
	"os"

	"InflectionTracker/internal/config"
	"InflectionTracker/internal/logging"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	symbol     string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Detect price inflection points and group news around them",
	Long: `InflectionTracker fetches a monthly closing-price series, finds the
significant peaks and troughs, and associates news records with the nearest
inflection date.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if symbol != "" {
			cfg.DataSource.Symbol = symbol
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&symbol, "symbol", "", "override data_source.symbol")

	rootCmd.AddCommand(runCmd, detectCmd, associateCmd, crossoverCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
