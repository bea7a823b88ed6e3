// Package report renders run statistics and records failed dates.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	ioutils "github.com/handiism/calendar-downloader/internal/io"
	"github.com/handiism/calendar-downloader/internal/model"
)

// FailedDatesFile is the name of the failed-dates list in the output directory.
const FailedDatesFile = "failed_downloads.txt"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	labelStyle = lipgloss.NewStyle().
			Width(12).
			Foreground(lipgloss.Color("#888888"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 2)
)

// Summary renders the statistics box.
func Summary(title string, stats *model.RunStatistics) string {
	row := func(label string, value string) string {
		return labelStyle.Render(label) + value
	}

	failed := fmt.Sprint(stats.Failed)
	if stats.Failed > 0 {
		failed = errorStyle.Render(failed)
	}

	lines := []string{
		titleStyle.Render(title),
		"",
		row("Total", fmt.Sprint(stats.Total)),
		row("Succeeded", successStyle.Render(fmt.Sprint(stats.Succeeded))),
		row("Failed", failed),
		row("Skipped", warningStyle.Render(fmt.Sprint(stats.Skipped))),
		row("Success", fmt.Sprintf("%.1f%%", stats.SuccessRate())),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// Print writes the summary to w followed by a newline.
func Print(w io.Writer, title string, stats *model.RunStatistics) {
	fmt.Fprintln(w, Summary(title, stats))
}

// SaveFailedDates writes one date per line to FailedDatesFile in dir and
// returns the file path.
func SaveFailedDates(dir string, dates []string) (string, error) {
	path := filepath.Join(dir, FailedDatesFile)
	if err := ioutils.EnsureDir(dir); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, d := range dates {
		b.WriteString(d)
		b.WriteByte('\n')
	}

	if err := ioutils.WriteFile(path, []byte(b.String())); err != nil {
		return "", fmt.Errorf("save failed dates: %w", err)
	}
	return path, nil
}

// RedriveCommand returns the command line that reprocesses dates.
func RedriveCommand(program, configPath string, dates []string) string {
	return fmt.Sprintf("%s --config %s process --dates %s", program, configPath, strings.Join(dates, ","))
}
