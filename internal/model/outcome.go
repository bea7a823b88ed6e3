package model

import (
	"sort"
	"time"
)

// OutcomeKind classifies the result of processing one date.
type OutcomeKind int

const (
	// OutcomeDownloaded means the file was fetched and written.
	OutcomeDownloaded OutcomeKind = iota

	// OutcomeAlreadyExisted means the file was already on disk and the fetch was skipped.
	OutcomeAlreadyExisted

	// OutcomeFailed means the date could not be processed.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeAlreadyExisted:
		return "already-existed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing a single date.
type Outcome struct {
	Date time.Time
	Kind OutcomeKind

	// Path is the local file path. Set for downloaded and already-existed outcomes.
	Path string

	// Err is the terminal error. Set only for failed outcomes.
	Err error
}

// Downloaded returns a downloaded outcome.
func Downloaded(date time.Time, path string) Outcome {
	return Outcome{Date: date, Kind: OutcomeDownloaded, Path: path}
}

// AlreadyExisted returns an already-existed outcome.
func AlreadyExisted(date time.Time, path string) Outcome {
	return Outcome{Date: date, Kind: OutcomeAlreadyExisted, Path: path}
}

// Failed returns a failed outcome.
func Failed(date time.Time, err error) Outcome {
	return Outcome{Date: date, Kind: OutcomeFailed, Err: err}
}

// RunStatistics accumulates outcomes for one batch invocation.
//
// It is not safe for concurrent use; the coordinator owns it and records
// outcomes from a single goroutine.
type RunStatistics struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int

	// FailedDates lists failed dates (YYYY-MM-DD) in completion order.
	FailedDates []string

	// SucceededDates lists downloaded dates (YYYY-MM-DD) in completion order.
	SucceededDates []string
}

// NewRunStatistics creates statistics for a run of total dates.
func NewRunStatistics(total int) *RunStatistics {
	return &RunStatistics{Total: total}
}

// Record folds one outcome into the statistics.
func (s *RunStatistics) Record(o Outcome) {
	date := FormatDate(o.Date)
	switch o.Kind {
	case OutcomeAlreadyExisted:
		s.Skipped++
	case OutcomeDownloaded:
		s.Succeeded++
		s.SucceededDates = append(s.SucceededDates, date)
	default:
		s.Failed++
		s.FailedDates = append(s.FailedDates, date)
	}
}

// Processed returns the number of recorded outcomes.
func (s *RunStatistics) Processed() int {
	return s.Succeeded + s.Failed + s.Skipped
}

// SuccessRate returns Succeeded/Total as a percentage, 0 for an empty run.
func (s *RunStatistics) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// LatestSuccessDate returns the latest downloaded date.
// ok is false when nothing was downloaded.
func (s *RunStatistics) LatestSuccessDate() (latest time.Time, ok bool) {
	for _, raw := range s.SucceededDates {
		d, err := ParseDate(raw)
		if err != nil {
			continue
		}
		if !ok || d.After(latest) {
			latest, ok = d, true
		}
	}
	return latest, ok
}

// SortedFailedDates returns a sorted copy of FailedDates.
func (s *RunStatistics) SortedFailedDates() []string {
	out := append([]string(nil), s.FailedDates...)
	sort.Strings(out)
	return out
}
