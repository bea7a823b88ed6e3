// Package model defines the core data structures used throughout
// the calendar-downloader application.
//
// # Dates
//
// Calendar dates are carried as time.Time values at midnight UTC:
//
//	d, err := model.ParseDate("2024-06-15")
//	dates := model.DateRange(start, model.Today())
//
// # Templates
//
// Template expands date placeholders in filename and URL formats:
//
//	tpl, _ := model.NewTemplate("{yyyy}{mm}{dd}.jpg")
//	tpl.Format(d) // "20240615.jpg"
//
// Available placeholders: {yyyy}, {year}, {yy}, {mm}, {m}, {month}, {dd},
// {d}, {day}, and the width forms {year:N}, {month:N}, {day:N}.
//
// # Path Resolution
//
// PathResolver turns a date into the source URL and the local file path,
// nesting files under a per-year directory:
//
//	r, _ := model.NewPathResolver(baseURL, "{yyyy}{mm}{dd}.jpg", "./images")
//	url, path := r.Resolve(d) // path = "images/2024/20240615.jpg"
//
// # Outcomes and Statistics
//
// Every processed date yields exactly one Outcome, which RunStatistics
// folds into run-wide counts.
package model
