package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/scheduler"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch and store today's weather once, as the daily job does",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireWeather(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			sched := scheduler.New(newWeatherCache(cfg, st), cfg.Scheduler.RefreshCron, cfg.Scheduler.Location, cfg.Scheduler.RefreshTimeout)

			ctx, cancel := context.WithTimeout(ctx, cfg.Scheduler.RefreshTimeout)
			defer cancel()

			rec, err := sched.RunNow(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.2fK\n",
				common.FormatDate(rec.Date), rec.Condition, rec.Icon, rec.TemperatureKelvin)
			return nil
		},
	}
}
