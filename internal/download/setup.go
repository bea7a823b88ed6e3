package download

import (
	"github.com/rs/zerolog"

	"github.com/handiism/calendar-downloader/internal/config"
	"github.com/handiism/calendar-downloader/internal/http"
	ioutils "github.com/handiism/calendar-downloader/internal/io"
	"github.com/handiism/calendar-downloader/internal/tags"
)

// NewFromSettings wires a Coordinator to the real HTTP client, filesystem
// and tagger described by settings.
func NewFromSettings(settings *config.Settings, log zerolog.Logger, onProgress func(ProgressEvent)) (*Coordinator, error) {
	resolver, err := settings.Resolver()
	if err != nil {
		return nil, err
	}

	fs := ioutils.FS{}
	runner := NewRunner(RunnerConfig{
		Resolver:   resolver,
		Fetcher:    http.NewClient(settings.HTTPOptions(log)),
		FS:         fs,
		Tagger:     tags.NewTagger(tags.DefaultTagConfig()),
		Times:      fs,
		Policy:     settings.RetryPolicy(),
		Validate:   settings.ValidateDownloads,
		Logger:     log,
		OnProgress: onProgress,
	})

	return NewCoordinator(runner, log, onProgress), nil
}
