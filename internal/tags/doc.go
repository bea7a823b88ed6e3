// Package tags stamps a calendar date into the embedded metadata of
// downloaded files.
//
// # Supported formats
//
//   - MP3: ID3v2 TDRC (recording time), TYER (year) and a COMM frame
//   - JPEG: an EXIF APP1 segment carrying DateTime, DateTimeOriginal,
//     DateTimeDigitized, ImageDescription and Artist
//
// Other file types are left untouched and SetEmbeddedDate returns nil.
//
// # Usage
//
//	tagger := tags.NewTagger(tags.DefaultTagConfig())
//	if err := tagger.SetEmbeddedDate(path, date); err != nil {
//	    log.Printf("Failed to tag %s: %v", path, err)
//	}
package tags
