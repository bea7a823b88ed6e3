package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/handiism/calendar-downloader/internal/http"
	ioutils "github.com/handiism/calendar-downloader/internal/io"
	"github.com/handiism/calendar-downloader/internal/model"
	"github.com/handiism/calendar-downloader/internal/retry"
)

// Settings holds all configuration options.
type Settings struct {
	// Date range
	StartDate string `toml:"start_date"`

	// Source and destination
	BaseURL        string `toml:"base_url"`
	OutputDir      string `toml:"output_dir"`
	FilenameFormat string `toml:"filename_format"`

	// Download settings
	MaxConcurrent     int     `toml:"max_concurrent"`
	UserAgent         string  `toml:"user_agent"`
	Timeout           int     `toml:"timeout"`
	ConnectTimeout    int     `toml:"connect_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ValidateDownloads bool    `toml:"validate_downloads"`

	// Retry settings
	MaxRetries          int  `toml:"max_retries"`
	RetryDelayMs        int  `toml:"retry_delay_ms"`
	MaxRetryDelayMs     int  `toml:"max_retry_delay_ms"`
	HonorSuggestedDelay bool `toml:"honor_suggested_delay"`
}

// DefaultSettings returns settings with default values.
//
// The required fields (start date, base URL, output directory and
// filename format) are left empty.
func DefaultSettings() *Settings {
	return &Settings{
		MaxConcurrent:   3,
		UserAgent:       "Mozilla/5.0",
		Timeout:         30,
		ConnectTimeout:  30,
		MaxRetries:      3,
		RetryDelayMs:    1000,
		MaxRetryDelayMs: 30000,
	}
}

// ValidationError lists every problem found in a Settings value.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads settings from a TOML file and applies environment overrides.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return settings, nil
}

type envOverrides struct {
	UserAgent string `env:"CALENDAR_USER_AGENT"`
	Timeout   string `env:"CALENDAR_TIMEOUT"`
}

// ApplyEnv applies CALENDAR_USER_AGENT and CALENDAR_TIMEOUT.
//
// A CALENDAR_TIMEOUT that is not a whole number of seconds is ignored.
func (s *Settings) ApplyEnv() error {
	o, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if o.UserAgent != "" {
		s.UserAgent = o.UserAgent
	}
	if o.Timeout != "" {
		if secs, err := strconv.Atoi(o.Timeout); err == nil {
			s.Timeout = secs
		}
	}
	return nil
}

// Validate checks required fields and value ranges.
func (s *Settings) Validate() error {
	var problems []string
	required := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	required("start_date", s.StartDate)
	required("base_url", s.BaseURL)
	required("output_dir", s.OutputDir)
	required("filename_format", s.FilenameFormat)

	if s.StartDate != "" {
		if _, err := model.ParseDate(s.StartDate); err != nil {
			problems = append(problems, fmt.Sprintf("start_date %q must be YYYY-MM-DD", s.StartDate))
		}
	}
	if s.MaxConcurrent < 1 {
		problems = append(problems, "max_concurrent must be at least 1")
	}
	if s.Timeout < 1 {
		problems = append(problems, "timeout must be at least 1 second")
	}
	if s.ConnectTimeout < 1 {
		problems = append(problems, "connect_timeout must be at least 1 second")
	}
	if s.MaxRetries < 0 {
		problems = append(problems, "max_retries must not be negative")
	}
	if s.RetryDelayMs < 0 || s.MaxRetryDelayMs < 0 {
		problems = append(problems, "retry delays must not be negative")
	}
	if s.RequestsPerSecond < 0 {
		problems = append(problems, "requests_per_second must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Save writes settings to a TOML file.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return ioutils.WriteFile(path, buf.Bytes())
}

// UpdateStartDate sets the start date and persists the settings to path.
func (s *Settings) UpdateStartDate(date time.Time, path string) error {
	s.StartDate = model.FormatDate(date)
	return s.Save(path)
}

// Start returns the configured start date.
func (s *Settings) Start() (time.Time, error) {
	return model.ParseDate(s.StartDate)
}

// EffectiveStart returns override when set, else the configured start date.
func (s *Settings) EffectiveStart(override string) (time.Time, error) {
	if override != "" {
		return model.ParseDate(override)
	}
	return s.Start()
}

// EffectiveEnd returns override when set, else today in UTC.
func EffectiveEnd(override string) (time.Time, error) {
	if override != "" {
		return model.ParseDate(override)
	}
	return model.Today(), nil
}

// RetryPolicy builds the retry policy for a run.
func (s *Settings) RetryPolicy() retry.Policy {
	p := retry.NewPolicy(
		s.MaxRetries,
		time.Duration(s.RetryDelayMs)*time.Millisecond,
		time.Duration(s.MaxRetryDelayMs)*time.Millisecond,
	)
	p.HonorSuggestedDelay = s.HonorSuggestedDelay
	return p
}

// HTTPOptions builds the HTTP client options.
func (s *Settings) HTTPOptions(log zerolog.Logger) http.Options {
	return http.Options{
		UserAgent:         s.UserAgent,
		Timeout:           time.Duration(s.Timeout) * time.Second,
		ConnectTimeout:    time.Duration(s.ConnectTimeout) * time.Second,
		RequestsPerSecond: s.RequestsPerSecond,
		Logger:            log,
	}
}

// Resolver builds the date-to-URL/path resolver.
func (s *Settings) Resolver() (*model.PathResolver, error) {
	r, err := model.NewPathResolver(s.BaseURL, s.FilenameFormat, s.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	return r, nil
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
