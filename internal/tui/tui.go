// Package tui provides a Bubble Tea terminal user interface for calendar-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/handiism/calendar-downloader/internal/config"
	"github.com/handiism/calendar-downloader/internal/download"
	"github.com/handiism/calendar-downloader/internal/model"
	"github.com/handiism/calendar-downloader/internal/report"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state      State
	textInput  textinput.Model
	spinner    spinner.Model
	progress   progress.Model
	settings   *config.Settings
	configPath string
	log        zerolog.Logger
	logs       []LogEntry
	err        error

	// Batch context
	ctx    context.Context
	cancel context.CancelFunc

	coordinator *download.Coordinator
	events      chan download.ProgressEvent
	current     download.Progress
	stats       *model.RunStatistics
	dates       []time.Time

	// Options
	overwrite    bool
	downloadOnly bool
	verbose      bool

	width  int
	height int
}

// NewModel creates a new TUI model for the settings loaded from configPath.
func NewModel(settings *config.Settings, configPath string, log zerolog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "2024-01-01..2024-12-31"
	ti.SetValue(settings.StartDate + ".." + model.FormatDate(model.Today()))
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:      StateInput,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		configPath: configPath,
		log:        log,
		logs:       make([]LogEntry, 0),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// DownloadDoneMsg is sent when the batch completes.
	DownloadDoneMsg struct {
		Stats *model.RunStatistics
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// ParseRange parses "START..END" or a single date. An empty end means today.
func ParseRange(s string) (start, end time.Time, err error) {
	from, to, found := strings.Cut(strings.TrimSpace(s), "..")
	start, err = model.ParseDate(strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !found {
		return start, start, nil
	}
	if strings.TrimSpace(to) == "" {
		return start, model.Today(), nil
	}
	end, err = model.ParseDate(strings.TrimSpace(to))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", model.FormatDate(end), model.FormatDate(start))
	}
	return start, end, nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				// admitted dates still finish; DownloadDoneMsg follows
				m.cancel()
				m.appendLog(download.ProgressEvent{Message: "Cancelling, waiting for running downloads...", Level: download.LevelWarning})
			}

		case "enter":
			if m.state == StateInput {
				start, end, err := ParseRange(m.textInput.Value())
				if err != nil {
					m.state = StateError
					m.err = err
					return m, nil
				}
				return m.startBatch(start, end)
			}

		case "o":
			if m.state == StateInput {
				m.overwrite = !m.overwrite
				return m, nil
			}

		case "m":
			if m.state == StateInput {
				m.downloadOnly = !m.downloadOnly
				return m, nil
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new batch
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.stats = nil
				m.coordinator = nil
				m.current = download.Progress{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case DownloadDoneMsg:
		m.drainEvents()
		m.stats = msg.Stats
		m.current = m.coordinator.Progress()
		m.state = StateComplete
		m.saveFailures()
		cmds = append(cmds, m.progress.SetPercent(m.current.Fraction()))

	case TickMsg:
		if m.coordinator != nil && m.state == StateDownloading {
			m.drainEvents()
			m.current = m.coordinator.Progress()
			cmds = append(cmds, m.progress.SetPercent(m.current.Fraction()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startBatch creates the coordinator and starts the batch in background.
func (m Model) startBatch(start, end time.Time) (tea.Model, tea.Cmd) {
	events := make(chan download.ProgressEvent, 256)
	onProgress := func(e download.ProgressEvent) {
		select {
		case events <- e:
		default:
			// the view only shows the tail
		}
	}

	coord, err := download.NewFromSettings(m.settings, m.log, onProgress)
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.coordinator = coord
	m.events = events
	m.dates = model.DateRange(start, end)
	m.current = download.Progress{Total: len(m.dates)}
	m.state = StateDownloading

	ctx := m.ctx
	dates := m.dates
	maxConcurrent := m.settings.MaxConcurrent
	overwrite, downloadOnly := m.overwrite, m.downloadOnly

	run := func() tea.Msg {
		stats := coord.RunBatch(ctx, dates, maxConcurrent, overwrite, downloadOnly)
		return DownloadDoneMsg{Stats: stats}
	}

	return m, tea.Batch(run, m.tickProgress(), m.spinner.Tick)
}

func (m *Model) drainEvents() {
	for {
		select {
		case e := <-m.events:
			m.appendLog(e)
		default:
			return
		}
	}
}

func (m *Model) appendLog(e download.ProgressEvent) {
	// Filter verbose messages if not in verbose mode
	if e.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// saveFailures writes the failed-dates file and advances the configured
// start date the same way the CLI run command does.
func (m *Model) saveFailures() {
	if m.stats == nil {
		return
	}

	if len(m.stats.FailedDates) > 0 {
		path, err := report.SaveFailedDates(m.settings.OutputDir, m.stats.SortedFailedDates())
		if err != nil {
			m.appendLog(download.ProgressEvent{Message: err.Error(), Level: download.LevelError})
		} else {
			m.appendLog(download.ProgressEvent{Message: "Failed dates saved to " + path, Level: download.LevelWarning})
		}
	}

	latest, ok := m.stats.LatestSuccessDate()
	start, err := m.settings.Start()
	if !ok || err != nil || !latest.After(start) || m.configPath == "" {
		return
	}
	if err := m.settings.UpdateStartDate(latest, m.configPath); err != nil {
		m.appendLog(download.ProgressEvent{Message: err.Error(), Level: download.LevelError})
		return
	}
	m.appendLog(download.ProgressEvent{Message: "Start date advanced to " + model.FormatDate(latest), Level: download.LevelInfo})
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Calendar Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.settings.BaseURL))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Date range (START..END):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Overwrite existing files (o)\n", checkbox(m.overwrite)))
	b.WriteString(fmt.Sprintf("  %s Download only, skip metadata (m)\n", checkbox(m.downloadOnly)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s  Concurrency: %d", m.settings.OutputDir, m.settings.MaxConcurrent)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Downloading %d date(s)", len(m.dates))))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.current.Fraction()))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(m.current.String()))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	if m.stats != nil {
		b.WriteString(report.Summary("Download complete", m.stats))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • o: overwrite • m: download only • v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, configPath string, log zerolog.Logger) error {
	p := tea.NewProgram(NewModel(settings, configPath, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
