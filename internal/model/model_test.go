package model

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTemplate_Format(t *testing.T) {
	tests := []struct {
		format string
		date   time.Time
		want   string
	}{
		{"{yyyy}{mm}{dd}.jpg", date(2024, 6, 15), "20240615.jpg"},
		{"{year}_{month}_{day}.png", date(2024, 6, 5), "2024_6_5.png"},
		{"{yy}{mm}{dd}.jpg", date(2024, 6, 15), "240615.jpg"},
		{"{yy}{mm}{dd}.jpg", date(1999, 12, 31), "991231.jpg"},
		{"{year}_{month:02}_{day:02}.png", date(2024, 6, 5), "2024_06_05.png"},
		{"{yy}/{mm}/{dd}.jpg", date(2024, 1, 1), "24/01/01.jpg"},
		{"{y}{m}{d}.jpg", date(2024, 12, 31), "{y}1231.jpg"},
		{"{yyyy}-{mm}-{dd}.jpg", date(2024, 1, 5), "2024-01-05.jpg"},
		{"photo_{yyyy}{mm}{dd}.jpg", date(2024, 6, 15), "photo_20240615.jpg"},
		{"{day:03}.jpg", date(2024, 6, 5), "005.jpg"},
		{"https://example.com/{year}/{month:02}/{day:02}.jpg", date(2024, 6, 5), "https://example.com/2024/06/05.jpg"},
		{"{unknown:02}-{dd}", date(2024, 6, 5), "{unknown:02}-05"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			tpl, err := NewTemplate(tt.format)
			if err != nil {
				t.Fatalf("NewTemplate(%q) error = %v", tt.format, err)
			}
			if got := tpl.Format(tt.date); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestTemplate_Empty(t *testing.T) {
	if _, err := NewTemplate(""); err == nil {
		t.Error("NewTemplate(\"\") should fail")
	}
}

func TestPathResolver_Resolve(t *testing.T) {
	r, err := NewPathResolver("https://example.com/{year}/{month:02}/{day:02}.jpg", "owspace_{yyyy}{mm}{dd}.jpg", "/images")
	if err != nil {
		t.Fatalf("NewPathResolver() error = %v", err)
	}

	url, path := r.Resolve(date(2015, 2, 18))

	if url != "https://example.com/2015/02/18.jpg" {
		t.Errorf("url = %q, want %q", url, "https://example.com/2015/02/18.jpg")
	}
	want := filepath.Join("/images", "2015", "owspace_20150218.jpg")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if !d.Equal(date(2024, 6, 15)) {
		t.Errorf("ParseDate() = %v", d)
	}

	for _, bad := range []string{"2024-13-01", "invalid", "2024/06/15", ""} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestDateRange(t *testing.T) {
	dates := DateRange(date(2024, 6, 1), date(2024, 6, 3))
	if len(dates) != 3 {
		t.Fatalf("len(DateRange) = %d, want 3", len(dates))
	}
	for i, want := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		if got := FormatDate(dates[i]); got != want {
			t.Errorf("dates[%d] = %s, want %s", i, got, want)
		}
	}

	if got := DateRange(date(2024, 6, 3), date(2024, 6, 1)); len(got) != 0 {
		t.Errorf("reversed range should be empty, got %d dates", len(got))
	}

	// crosses a month and a leap day
	if got := DateRange(date(2024, 2, 28), date(2024, 3, 1)); len(got) != 3 {
		t.Errorf("leap range len = %d, want 3", len(got))
	}
}

func TestMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2024, 6, 15, 23, 30, 0, 0, loc)
	got := MidnightUTC(in)
	if !got.Equal(date(2024, 6, 15)) {
		t.Errorf("MidnightUTC() = %v", got)
	}
}

func TestRunStatistics(t *testing.T) {
	stats := NewRunStatistics(5)
	stats.Record(Downloaded(date(2024, 6, 2), "a"))
	stats.Record(Downloaded(date(2024, 6, 4), "b"))
	stats.Record(Failed(date(2024, 6, 1), errors.New("boom")))
	stats.Record(AlreadyExisted(date(2024, 6, 3), "c"))

	if stats.Total != 5 || stats.Succeeded != 2 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.Processed() != 4 {
		t.Errorf("Processed() = %d, want 4", stats.Processed())
	}
	if got := stats.SuccessRate(); got != 40.0 {
		t.Errorf("SuccessRate() = %v, want 40", got)
	}
	if len(stats.FailedDates) != 1 || stats.FailedDates[0] != "2024-06-01" {
		t.Errorf("FailedDates = %v", stats.FailedDates)
	}

	latest, ok := stats.LatestSuccessDate()
	if !ok || FormatDate(latest) != "2024-06-04" {
		t.Errorf("LatestSuccessDate() = %v, %v", latest, ok)
	}
}

func TestRunStatistics_Empty(t *testing.T) {
	stats := NewRunStatistics(0)
	if stats.SuccessRate() != 0 {
		t.Errorf("SuccessRate() = %v, want 0", stats.SuccessRate())
	}
	if _, ok := stats.LatestSuccessDate(); ok {
		t.Error("LatestSuccessDate() should report no date")
	}
}

func TestOutcomeKind_String(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeDownloaded, "downloaded"},
		{OutcomeAlreadyExisted, "already-existed"},
		{OutcomeFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
