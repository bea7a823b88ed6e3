package ioutils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteFile writes data to path atomically.
//
// The data goes to a temporary file in the same directory which is then
// renamed over path, so readers never observe a partially written file.
// The result has mode 0644.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".calendar-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}

// SetFileTimes sets the access and modification times of path to t.
//
// Creation time is left alone; it cannot be set portably.
func SetFileTimes(path string, t time.Time) error {
	if !Exists(path) {
		return fmt.Errorf("set file times %s: %w", path, os.ErrNotExist)
	}
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("set file times %s: %w", path, err)
	}
	return nil
}

// FS is the local filesystem.
type FS struct{}

func (FS) EnsureDir(path string) error               { return EnsureDir(path) }
func (FS) Exists(path string) bool                   { return Exists(path) }
func (FS) WriteBytes(path string, data []byte) error { return WriteFile(path, data) }
func (FS) SetFileTimes(path string, t time.Time) error {
	return SetFileTimes(path, t)
}
