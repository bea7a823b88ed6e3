// Package download is the batch retrieval engine: it fetches one file per
// calendar date and stamps it with that date.
//
// # Runner
//
// The Runner handles a single date:
//
//  1. Resolve the source URL and local path
//  2. Skip the fetch if the file already exists (unless overwriting)
//  3. Fetch with retry, classifying each failure
//  4. Write the file atomically
//  5. Repair metadata: embedded date tags and file times
//
// HTTP 404 is terminal. Other failures are retried with exponential
// backoff when their category is retryable. Repair failures are logged
// and never fail the date.
//
// # Coordinator
//
// The Coordinator runs many dates with a concurrency limit:
//
//	runner := download.NewRunner(download.RunnerConfig{
//	    Resolver: resolver,
//	    Fetcher:  client,
//	    FS:       ioutils.FS{},
//	    Tagger:   tags.NewTagger(nil),
//	    Times:    ioutils.FS{},
//	    Policy:   settings.RetryPolicy(),
//	})
//	coord := download.NewCoordinator(runner, logger, nil)
//	stats := coord.RunBatch(ctx, dates, 3, false, false)
//
// A batch never fails as a whole; it returns model.RunStatistics.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// OnUpdate observers additionally receive a Progress snapshot (completed
// count and a status label) after every date.
package download
