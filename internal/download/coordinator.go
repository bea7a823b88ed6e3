package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/handiism/calendar-downloader/internal/model"
)

// Coordinator runs batches of dates with bounded concurrency.
//
// Example usage:
//
//	coord := NewCoordinator(runner, logger, func(event ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	stats := coord.RunBatch(ctx, dates, 3, false, false)
type Coordinator struct {
	runner *Runner
	log    zerolog.Logger

	onProgress func(ProgressEvent)
	onUpdate   func(Progress)

	mu       sync.RWMutex
	progress Progress
}

// NewCoordinator creates a Coordinator that dispatches to runner.
//
// onProgress may be nil. It is called from the collector goroutine for
// every completed date.
func NewCoordinator(runner *Runner, log zerolog.Logger, onProgress func(ProgressEvent)) *Coordinator {
	return &Coordinator{
		runner:     runner,
		log:        log,
		onProgress: onProgress,
	}
}

// OnUpdate registers fn to receive a Progress snapshot after every
// completed date. It must be called before a batch starts.
func (c *Coordinator) OnUpdate(fn func(Progress)) {
	c.onUpdate = fn
}

// Progress returns the current batch progress.
func (c *Coordinator) Progress() Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.progress
}

// RunBatch processes dates with at most maxConcurrent tasks in flight.
//
// Dates are admitted in input order; outcomes arrive in any order. A task
// failure never stops the batch. downloadOnly skips metadata repair.
//
// If ctx is cancelled, admission stops, the tasks already admitted run to
// completion, and the partial statistics are returned.
func (c *Coordinator) RunBatch(ctx context.Context, dates []time.Time, maxConcurrent int, overwrite, downloadOnly bool) *model.RunStatistics {
	return c.run(ctx, dates, maxConcurrent, Options{Overwrite: overwrite, SkipRepair: downloadOnly})
}

// ProcessDates processes an explicit list of dates one at a time.
//
// metadataOnly skips metadata repair; the fetch still happens for dates
// whose file is missing.
func (c *Coordinator) ProcessDates(ctx context.Context, dates []time.Time, overwrite, metadataOnly bool) *model.RunStatistics {
	return c.run(ctx, dates, 1, Options{Overwrite: overwrite, SkipRepair: metadataOnly})
}

func (c *Coordinator) run(ctx context.Context, dates []time.Time, maxConcurrent int, opts Options) *model.RunStatistics {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	stats := model.NewRunStatistics(len(dates))
	c.reset(len(dates))

	c.log.Info().
		Int("dates", len(dates)).
		Int("max_concurrent", maxConcurrent).
		Bool("overwrite", opts.Overwrite).
		Bool("skip_repair", opts.SkipRepair).
		Msg("starting batch")

	outcomes := make(chan model.Outcome)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for o := range outcomes {
			stats.Record(o)
			c.advance(o)
		}
	}()

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	taskCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, date := range dates {
		if err := sem.Acquire(ctx, 1); err != nil {
			c.log.Warn().Err(err).Msg("admission stopped, waiting for running tasks")
			c.notify(ProgressEvent{Message: "Cancelled, waiting for running downloads to finish", Level: LevelWarning})
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			o := c.runner.Run(taskCtx, date, opts)
			sem.Release(1)
			outcomes <- o
		}()
	}

	wg.Wait()
	close(outcomes)
	<-collected

	c.log.Info().
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Msg("batch finished")
	c.notify(ProgressEvent{
		Message: fmt.Sprintf("Finished: %d downloaded, %d skipped, %d failed", stats.Succeeded, stats.Skipped, stats.Failed),
		Level:   LevelInfo,
	})

	return stats
}

func (c *Coordinator) reset(total int) {
	c.mu.Lock()
	c.progress = Progress{Total: total}
	c.mu.Unlock()
}

// advance is called only from the collector goroutine.
func (c *Coordinator) advance(o model.Outcome) {
	c.mu.Lock()
	c.progress.Completed++
	c.progress.Label = label(o)
	snapshot := c.progress
	c.mu.Unlock()

	c.notify(event(o))
	if c.onUpdate != nil {
		c.onUpdate(snapshot)
	}
}

func (c *Coordinator) notify(event ProgressEvent) {
	if c.onProgress != nil {
		c.onProgress(event)
	}
}
