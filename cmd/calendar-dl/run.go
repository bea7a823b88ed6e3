package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/calendar-downloader/internal/config"
	"github.com/handiism/calendar-downloader/internal/download"
	"github.com/handiism/calendar-downloader/internal/model"
	"github.com/handiism/calendar-downloader/internal/report"
)

type runOptions struct {
	startDate    string
	endDate      string
	overwrite    bool
	downloadOnly bool
}

func bindRunFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().StringVar(&o.startDate, "start-date", "", "First date to download (YYYY-MM-DD, default from config)")
	cmd.Flags().StringVar(&o.endDate, "end-date", "", "Last date to download (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&o.overwrite, "overwrite", false, "Re-download files that already exist")
	cmd.Flags().BoolVar(&o.downloadOnly, "download-only", false, "Skip embedded date tags and file times")
}

func runCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}

	command := &cobra.Command{
		Use:   "run",
		Short: "Download every date from the start date to the end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.execute(cmd, g)
		},
	}
	bindRunFlags(command, o)

	return command
}

func (o *runOptions) execute(cmd *cobra.Command, g *globalOptions) error {
	settings, logger, err := g.load()
	if err != nil {
		return err
	}

	start, err := settings.EffectiveStart(o.startDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := config.EffectiveEnd(o.endDate)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", model.FormatDate(end), model.FormatDate(start))
	}

	coord, err := download.NewFromSettings(settings, logger, g.printer(cmd))
	if err != nil {
		return err
	}

	coord.OnUpdate(func(p download.Progress) {
		logger.Debug().Int("completed", p.Completed).Int("total", p.Total).Msg(p.Label)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dates := model.DateRange(start, end)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Downloading %s to %s (%d dates, concurrency %d)\n\n",
		model.FormatDate(start), model.FormatDate(end), len(dates), settings.MaxConcurrent)

	stats := coord.RunBatch(ctx, dates, settings.MaxConcurrent, o.overwrite, o.downloadOnly)

	fmt.Fprintln(out)
	report.Print(out, "Download statistics", stats)

	if err := reportFailures(cmd, g, settings, stats); err != nil {
		return err
	}

	// only a run driven by the configured start date advances it
	if o.startDate != "" {
		return nil
	}
	latest, ok := stats.LatestSuccessDate()
	configured, err := settings.Start()
	if !ok || err != nil || !latest.After(configured) {
		return nil
	}

	fmt.Fprintf(out, "\nUpdating start date: %s -> %s\n", settings.StartDate, model.FormatDate(latest))
	if err := settings.UpdateStartDate(latest, g.configPath); err != nil {
		return fmt.Errorf("update start date: %w", err)
	}
	logger.Info().Str("start_date", settings.StartDate).Str("config", g.configPath).Msg("config updated")
	return nil
}

// reportFailures saves the failed dates and prints the command that retries them.
func reportFailures(cmd *cobra.Command, g *globalOptions, settings *config.Settings, stats *model.RunStatistics) error {
	if len(stats.FailedDates) == 0 {
		return nil
	}

	failed := stats.SortedFailedDates()
	path, err := report.SaveFailedDates(settings.OutputDir, failed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nFailed dates saved to: %s\n", path)
	fmt.Fprintln(out, "Retry them with:")
	fmt.Fprintf(out, "  %s\n", report.RedriveCommand(programName, g.configPath, failed))
	return nil
}
