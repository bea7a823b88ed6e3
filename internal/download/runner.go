package download

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/calendar-downloader/internal/http"
	ioutils "github.com/handiism/calendar-downloader/internal/io"
	"github.com/handiism/calendar-downloader/internal/model"
	"github.com/handiism/calendar-downloader/internal/retry"
)

// Resolver maps a date to its source URL and local path.
type Resolver interface {
	Resolve(date time.Time) (url, path string)
}

// Fetcher performs a single GET request.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// DateTagger writes a date into a file's embedded metadata.
type DateTagger interface {
	SetEmbeddedDate(path string, date time.Time) error
}

// TimeSetter sets filesystem timestamps.
type TimeSetter interface {
	SetFileTimes(path string, t time.Time) error
}

// FileSystem is the storage the Runner writes to.
type FileSystem interface {
	EnsureDir(path string) error
	Exists(path string) bool
	WriteBytes(path string, data []byte) error
}

// Options controls a single task.
type Options struct {
	// Overwrite re-downloads files that already exist.
	Overwrite bool

	// SkipRepair skips embedded-date tagging and file time setting.
	SkipRepair bool
}

// RunnerConfig holds the collaborators of a Runner.
type RunnerConfig struct {
	Resolver Resolver
	Fetcher  Fetcher
	FS       FileSystem
	Tagger   DateTagger
	Times    TimeSetter
	Policy   retry.Policy

	// Validate checks each written file and logs a warning when it does
	// not look like an image.
	Validate bool

	Logger     zerolog.Logger
	OnProgress func(ProgressEvent)
}

// Runner processes one date from resolution to metadata repair.
//
// Runner is safe for concurrent use if its collaborators are.
type Runner struct {
	resolver Resolver
	fetcher  Fetcher
	fs       FileSystem
	tagger   DateTagger
	times    TimeSetter
	policy   retry.Policy
	validate func(path string) (ioutils.Validation, error)
	log      zerolog.Logger

	onProgress func(ProgressEvent)
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{
		resolver:   cfg.Resolver,
		fetcher:    cfg.Fetcher,
		fs:         cfg.FS,
		tagger:     cfg.Tagger,
		times:      cfg.Times,
		policy:     cfg.Policy,
		log:        cfg.Logger,
		onProgress: cfg.OnProgress,
		sleep:      waitForRetry,
	}
	if cfg.Validate {
		r.validate = ioutils.ValidateImage
	}
	return r
}

// Run processes date and returns exactly one outcome. It never panics on
// collaborator errors and never returns a nil outcome.
func (r *Runner) Run(ctx context.Context, date time.Time, opts Options) model.Outcome {
	date = model.MidnightUTC(date)
	url, path := r.resolver.Resolve(date)
	log := r.log.With().Str("date", model.FormatDate(date)).Logger()

	if !opts.Overwrite && r.fs.Exists(path) {
		log.Debug().Str("path", path).Msg("file exists, skipping fetch")
		if !opts.SkipRepair {
			r.repair(log, path, date)
		}
		return model.AlreadyExisted(date, path)
	}

	if err := r.fs.EnsureDir(filepath.Dir(path)); err != nil {
		return model.Failed(date, err)
	}

	body, err := r.fetchWithRetry(ctx, log, date, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("download failed")
		return model.Failed(date, err)
	}

	if err := r.fs.WriteBytes(path, body); err != nil {
		log.Error().Err(err).Str("path", path).Msg("write failed")
		return model.Failed(date, fmt.Errorf("write %s: %w", path, err))
	}
	log.Info().Str("path", path).Int("bytes", len(body)).Msg("downloaded")

	if !opts.SkipRepair {
		r.repair(log, path, date)
	}
	if r.validate != nil {
		r.check(log, path)
	}

	return model.Downloaded(date, path)
}

// repair stamps the date into the file. Failures are logged only.
func (r *Runner) repair(log zerolog.Logger, path string, date time.Time) {
	if err := r.tagger.SetEmbeddedDate(path, date); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to set embedded date")
		r.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", filepath.Base(path), err), Level: LevelWarning})
	}
	if err := r.times.SetFileTimes(path, date); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to set file times")
		r.progress(ProgressEvent{Message: fmt.Sprintf("Error setting file times %s: %v", filepath.Base(path), err), Level: LevelWarning})
	}
}

func (r *Runner) check(log zerolog.Logger, path string) {
	res, err := r.validate(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("validation failed")
		return
	}
	if !res.Valid {
		log.Warn().Str("path", path).Str("reason", res.Reason).Msg("downloaded file does not look like an image")
		r.progress(ProgressEvent{Message: fmt.Sprintf("Suspicious file %s: %s", filepath.Base(path), res.Reason), Level: LevelWarning})
	}
}

// fetchWithRetry returns the body of a successful response, retrying
// retryable failures according to the policy.
func (r *Runner) fetchWithRetry(ctx context.Context, log zerolog.Logger, date time.Time, url string) ([]byte, error) {
	attempts := r.policy.Attempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		body, cat, err := r.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if cat == nil {
			return nil, err
		}
		if !r.policy.ShouldRetry(attempt, *cat) {
			if attempt == 0 {
				return nil, err
			}
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		delay := r.policy.Delay(attempt, *cat)
		log.Warn().
			Err(err).
			Str("category", cat.String()).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("retrying")
		r.progress(ProgressEvent{
			Message: fmt.Sprintf("Retry %d/%d for %s (%s)", attempt+1, attempts-1, model.FormatDate(date), cat),
			Level:   LevelWarning,
		})

		if err := r.sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// errEmptyBody is reported for a 2xx response with no content.
var errEmptyBody = errors.New("server returned empty response")

// fetchOnce performs one attempt. A nil category marks a terminal failure.
func (r *Runner) fetchOnce(ctx context.Context, url string) ([]byte, *retry.Category, error) {
	resp, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		cat := retry.ClassifyError(cause(err), 0)
		return nil, &cat, err
	}

	if resp.StatusCode == nethttp.StatusNotFound {
		return nil, nil, &http.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if !resp.Success() {
		cat := retry.Classify(fmt.Sprintf("HTTP %d", resp.StatusCode), resp.StatusCode)
		return nil, &cat, &http.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if len(resp.Body) == 0 {
		cat := retry.Category{Kind: retry.KindDecodeFailure, Message: errEmptyBody.Error()}
		return nil, &cat, errEmptyBody
	}

	return resp.Body, nil, nil
}

// cause strips the request wrapper, whose message embeds the URL.
func cause(err error) error {
	var reqErr *http.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return reqErr.Err
	}
	var readErr *http.ReadError
	if errors.As(err, &readErr) && readErr.Err != nil {
		return readErr.Err
	}
	return err
}

func (r *Runner) progress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

// waitForRetry sleeps for d or until ctx is done.
func waitForRetry(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
