package main

import (
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/handiism/calendar-downloader/internal/download"
	"github.com/handiism/calendar-downloader/internal/model"
	"github.com/handiism/calendar-downloader/internal/report"
)

func processCmd(g *globalOptions) *cobra.Command {
	var (
		date         string
		dates        []string
		overwrite    bool
		metadataOnly bool
	)

	command := &cobra.Command{
		Use:   "process",
		Short: "Process specific dates one at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseDates(append([]string{date}, dates...))
			if err != nil {
				return err
			}

			settings, logger, err := g.load()
			if err != nil {
				return err
			}

			coord, err := download.NewFromSettings(settings, logger, g.printer(cmd))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats := coord.ProcessDates(ctx, parsed, overwrite, metadataOnly)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			report.Print(out, "Processing statistics", stats)

			return reportFailures(cmd, g, settings, stats)
		},
	}

	command.Flags().StringVar(&date, "date", "", "Single date to process (YYYY-MM-DD)")
	command.Flags().StringSliceVar(&dates, "dates", nil, "Comma-separated dates to process (repeatable)")
	command.Flags().BoolVar(&overwrite, "overwrite", false, "Re-download files that already exist")
	command.Flags().BoolVar(&metadataOnly, "metadata-only", false, "Skip embedded date tags and file times")

	return command
}

// parseDates trims, validates, dedupes and sorts date arguments.
func parseDates(raw []string) ([]time.Time, error) {
	seen := make(map[string]bool)
	var out []time.Time

	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		d, err := model.ParseDate(r)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", r, err)
		}
		seen[r] = true
		out = append(out, d)
	}

	if len(out) == 0 {
		return nil, errors.New("no dates given: use --date or --dates")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
