package download

import (
	"fmt"

	"github.com/handiism/calendar-downloader/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Progress is a snapshot of a running batch.
//
// Completed only grows during a batch.
type Progress struct {
	Completed int
	Total     int

	// Label describes the most recently completed date.
	Label string
}

// Fraction returns Completed/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

func (p Progress) String() string {
	return fmt.Sprintf("[%d/%d] %s", p.Completed, p.Total, p.Label)
}

// label returns the status line shown after an outcome.
func label(o model.Outcome) string {
	date := model.FormatDate(o.Date)
	switch o.Kind {
	case model.OutcomeDownloaded:
		return "downloaded " + date
	case model.OutcomeAlreadyExisted:
		return "skipped " + date + " (exists)"
	default:
		return "failed " + date
	}
}

// event converts an outcome to a progress event.
func event(o model.Outcome) ProgressEvent {
	date := model.FormatDate(o.Date)
	switch o.Kind {
	case model.OutcomeDownloaded:
		return ProgressEvent{Message: fmt.Sprintf("Downloaded %s: %s", date, o.Path), Level: LevelSuccess}
	case model.OutcomeAlreadyExisted:
		return ProgressEvent{Message: fmt.Sprintf("Skipping existing %s: %s", date, o.Path), Level: LevelVerbose}
	default:
		return ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", date, o.Err), Level: LevelError}
	}
}
