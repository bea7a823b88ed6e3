package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// widthPlaceholder matches {year:N}, {month:N} and {day:N}.
var widthPlaceholder = regexp.MustCompile(`\{(year|month|day):(\d+)\}`)

// Template expands date placeholders in a filename or URL format.
//
// Supported placeholders:
//   - {yyyy}, {year} - four-digit year
//   - {yy} - two-digit year
//   - {mm} - zero-padded month; {m}, {month} - month without padding
//   - {dd} - zero-padded day; {d}, {day} - day without padding
//   - {month:N}, {day:N} - value zero-padded to width N; {year:N} - year
//
// Unknown placeholders are left untouched.
//
// Example:
//
//	tpl, _ := NewTemplate("https://example.com/{year}/{month:02}/{day:02}.jpg")
//	tpl.Format(date) // "https://example.com/2024/06/05.jpg"
type Template struct {
	format string
}

// NewTemplate creates a Template. An empty format is rejected.
func NewTemplate(format string) (*Template, error) {
	if format == "" {
		return nil, errors.New("template format must not be empty")
	}
	return &Template{format: format}, nil
}

// String returns the raw format.
func (t *Template) String() string {
	return t.format
}

// Format expands the template for the given date.
func (t *Template) Format(date time.Time) string {
	year, month, day := date.Date()

	s := t.format
	s = strings.ReplaceAll(s, "{yyyy}", strconv.Itoa(year))
	s = strings.ReplaceAll(s, "{year}", strconv.Itoa(year))
	s = strings.ReplaceAll(s, "{yy}", fmt.Sprintf("%02d", absInt(year%100)))
	s = strings.ReplaceAll(s, "{mm}", fmt.Sprintf("%02d", int(month)))
	s = strings.ReplaceAll(s, "{m}", strconv.Itoa(int(month)))
	s = strings.ReplaceAll(s, "{month}", strconv.Itoa(int(month)))
	s = strings.ReplaceAll(s, "{dd}", fmt.Sprintf("%02d", day))
	s = strings.ReplaceAll(s, "{d}", strconv.Itoa(day))
	s = strings.ReplaceAll(s, "{day}", strconv.Itoa(day))

	return widthPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		parts := widthPlaceholder.FindStringSubmatch(match)
		width, err := strconv.Atoi(parts[2])
		if err != nil {
			return match
		}
		switch parts[1] {
		case "year":
			return strconv.Itoa(year)
		case "month":
			return fmt.Sprintf("%0*d", width, int(month))
		default:
			return fmt.Sprintf("%0*d", width, day)
		}
	})
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PathResolver maps a date to its source URL and local file path.
//
// Files are nested under a per-year directory inside OutputDir:
//
//	OutputDir/2024/20240615.jpg
type PathResolver struct {
	URL       *Template
	File      *Template
	OutputDir string
}

// NewPathResolver builds a PathResolver from raw formats.
func NewPathResolver(baseURL, filenameFormat, outputDir string) (*PathResolver, error) {
	urlTpl, err := NewTemplate(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	fileTpl, err := NewTemplate(filenameFormat)
	if err != nil {
		return nil, fmt.Errorf("filename format: %w", err)
	}
	return &PathResolver{URL: urlTpl, File: fileTpl, OutputDir: outputDir}, nil
}

// Resolve returns the URL and target path for date. It has no side effects.
func (r *PathResolver) Resolve(date time.Time) (url, path string) {
	url = r.URL.Format(date)
	path = filepath.Join(r.OutputDir, strconv.Itoa(date.Year()), r.File.Format(date))
	return url, path
}
