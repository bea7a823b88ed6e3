package ioutils

import (
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

const (
	minImageSize = 1024
	maxImageSize = 50 * 1024 * 1024
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"webp": true, "bmp": true, "tiff": true, "tif": true,
}

// Validation is the verdict on a downloaded file.
type Validation struct {
	Valid  bool
	Reason string

	// Format is the decoder name ("jpeg", "png", ...) when the header decoded.
	Format string
}

func invalid(reason string) Validation {
	return Validation{Reason: reason}
}

// ValidateImage checks that path plausibly holds an image.
//
// A file is invalid when it is missing, empty, has an unsupported
// extension, is smaller than 1 KiB or larger than 50 MiB, or when its
// header cannot be decoded as an image. Only I/O failures other than a
// missing file are returned as errors.
func ValidateImage(path string) (Validation, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return invalid("file does not exist"), nil
		}
		return Validation{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		return invalid("file is empty"), nil
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext != "" && !imageExtensions[ext] {
		return invalid(fmt.Sprintf("unsupported file format: %s", ext)), nil
	}

	if info.Size() < minImageSize {
		return invalid("file is too small, probably corrupt"), nil
	}
	if info.Size() > maxImageSize {
		return invalid("file is too large"), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Validation{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return invalid(fmt.Sprintf("not a decodable image: %v", err)), nil
	}

	return Validation{Valid: true, Format: format}, nil
}
