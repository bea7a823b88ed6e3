// Package ioutils provides file system and image validation utilities.
//
// This package contains functions for:
//   - Directory creation and existence checks
//   - Atomic file writes
//   - Setting filesystem timestamps
//   - Validating downloaded images
//
// # File Operations
//
//	err := ioutils.EnsureDir("/images/2024")
//	err = ioutils.WriteFile("/images/2024/20240615.jpg", data)
//	err = ioutils.SetFileTimes("/images/2024/20240615.jpg", date)
//
// FS bundles these into a value that satisfies the download package's
// FileSystem interface.
//
// # Validation
//
//	res, err := ioutils.ValidateImage(path)
//	if !res.Valid {
//	    fmt.Println(res.Reason)
//	}
package ioutils
