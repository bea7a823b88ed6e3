// Package config provides configuration management for calendar-downloader.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Environment overrides (CALENDAR_USER_AGENT, CALENDAR_TIMEOUT)
//   - Conversion to the retry policy and HTTP options used by other packages
//
// # Loading from File
//
//	settings, err := config.Load("config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A minimal file:
//
//	start_date      = "2015-02-18"
//	base_url        = "https://img.example.com/{year}/{month:02}/{day:02}.jpg"
//	output_dir      = "./images"
//	filename_format = "{yyyy}{mm}{dd}.jpg"
//
// # Saving Settings
//
//	err := settings.UpdateStartDate(latest, "config.toml")
package config
