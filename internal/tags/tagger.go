package tags

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2"
)

// TagEditAction defines how to handle individual ID3 frames.
type TagEditAction int

const (
	// TagEmpty removes the frame.
	TagEmpty TagEditAction = iota

	// TagModify sets the frame from the date.
	TagModify

	// TagDoNotModify leaves the existing frame unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration.
//
// Example:
//
//	cfg := &TagConfig{
//	    Year:     TagModify,      // TYER from the date
//	    Date:     TagModify,      // TDRC from the date
//	    Comments: TagDoNotModify, // keep existing comments
//	    Artist:   "OWSPACE",
//	}
type TagConfig struct {
	// Year controls the TYER (Year) frame.
	Year TagEditAction

	// Date controls the TDRC (Recording time) frame (ID3v2.4).
	Date TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction

	// Artist is written to the EXIF Artist field of JPEG and TIFF files.
	// Empty omits the field.
	Artist string
}

// DefaultTagConfig returns the default tag configuration.
//
// All ID3 frames are set to TagModify.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Year:     TagModify,
		Date:     TagModify,
		Comments: TagModify,
		Artist:   "calendar-downloader",
	}
}

// Tagger writes a date into file metadata.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//
//	// After downloading
//	err := tagger.SetEmbeddedDate(path, date)
//	if err != nil {
//	    log.Printf("Failed to tag %s: %v", path, err)
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

type fileKind int

const (
	kindOther fileKind = iota
	kindMP3
	kindJPEG
	kindTIFF
)

func kindOf(path string) fileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return kindMP3
	case ".jpg", ".jpeg":
		return kindJPEG
	case ".tif", ".tiff":
		return kindTIFF
	default:
		return kindOther
	}
}

// Supports reports whether the file type at path carries embedded dates.
func Supports(path string) bool {
	return kindOf(path) != kindOther
}

// SetEmbeddedDate writes date into the embedded metadata of the file at path.
//
// Unsupported file types are a no-op.
func (t *Tagger) SetEmbeddedDate(path string, date time.Time) error {
	switch kindOf(path) {
	case kindMP3:
		return t.saveID3(path, date)
	case kindJPEG:
		return t.saveExif(path, date)
	case kindTIFF:
		return t.saveTIFF(path, date)
	default:
		return nil
	}
}

// saveID3 updates the date frames of an MP3 file.
func (t *Tagger) saveID3(path string, date time.Time) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag %s: %w", path, err)
	}
	defer tag.Close()

	// Year (TYER) - ID3v2.3
	switch t.config.Year {
	case TagEmpty:
		tag.DeleteFrames("TYER")
	case TagModify:
		tag.DeleteFrames("TYER")
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, date.Format("2006"))
	}

	// Date (TDRC) - ID3v2.4
	switch t.config.Date {
	case TagEmpty:
		tag.DeleteFrames("TDRC")
	case TagModify:
		tag.DeleteFrames("TDRC")
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, date.Format("2006-01-02"))
	}

	// Comments (COMM)
	switch t.config.Comments {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Comments"))
	case TagModify:
		tag.DeleteFrames(tag.CommonID("Comments"))
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "date",
			Text:        date.Format("2006-01-02"),
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag %s: %w", path, err)
	}
	return nil
}
