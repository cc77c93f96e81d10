package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"InflectionTracker/internal/scheduler"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newTracker()
		if err != nil {
			return err
		}
		defer t.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sched := scheduler.NewScheduler(ctx, t)
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if runOnStart || os.Getenv("RUN_ON_START") == "true" {
			log.Info().Msg("run on start enabled, executing now")
			go sched.RunNow()
		}

		log.Info().Str("symbol", t.Symbol()).Msg("InflectionTracker is running, press Ctrl+C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutdown signal received, stopping")
		cancel()
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "execute one run immediately")
}
