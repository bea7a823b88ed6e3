package tags

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	ioutils "github.com/handiism/calendar-downloader/internal/io"
)

// EXIF date layout: "YYYY:MM:DD HH:MM:SS".
const exifDateLayout = "2006:01:02 15:04:05"

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
)

// TIFF tags written by the tagger.
const (
	tagImageDescription  = 0x010E
	tagDateTime          = 0x0132
	tagArtist            = 0x013B
	tagExifIFDPointer    = 0x8769
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
)

const (
	typeASCII = 2
	typeLong  = 4
)

// maxSegment is the largest APP1 payload a JPEG marker length can describe.
const maxSegment = 0xFFFF - 2

var exifHeader = []byte("Exif\x00\x00")

var (
	// ErrNotJPEG is returned when a .jpg file does not start with a JPEG SOI marker.
	ErrNotJPEG = errors.New("not a JPEG file")

	// ErrNotTIFF is returned when a TIFF stream has no valid header.
	ErrNotTIFF = errors.New("not a TIFF stream")
)

// exifFields are the values the tagger stamps into IFD0 and the Exif IFD.
type exifFields struct {
	description string
	stamp       string
	artist      string
}

func newExifFields(date time.Time, artist string) exifFields {
	return exifFields{
		description: date.Format("2006-01-02"),
		stamp:       date.Format(exifDateLayout),
		artist:      artist,
	}
}

// saveExif sets the date fields of a JPEG file. Other EXIF entries are kept.
func (t *Tagger) saveExif(path string, date time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	segs, rest, err := jpegSegments(data)
	if err != nil {
		return fmt.Errorf("write exif %s: %w", path, err)
	}

	fields := newExifFields(date, t.config.Artist)
	var tiff []byte
	for _, seg := range segs {
		if seg.isExif() {
			tiff = seg.payload()[len(exifHeader):]
			break
		}
	}
	if tiff != nil && fields.current(tiff) {
		return nil
	}

	updated, err := updateTIFF(tiff, fields)
	if err != nil {
		// an unreadable Exif block is replaced
		updated, _ = updateTIFF(nil, fields)
	}
	if len(exifHeader)+len(updated) > maxSegment {
		return fmt.Errorf("write exif %s: segment exceeds %d bytes", path, maxSegment)
	}

	return ioutils.WriteFile(path, spliceExif(segs, rest, exifSegment(updated)))
}

// saveTIFF sets the date fields of a TIFF file, whose IFD0 is the EXIF IFD0.
func (t *Tagger) saveTIFF(path string, date time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	fields := newExifFields(date, t.config.Artist)
	if fields.current(data) {
		return nil
	}

	updated, err := updateTIFF(data, fields)
	if err != nil {
		return fmt.Errorf("write tiff tags %s: %w", path, err)
	}
	return ioutils.WriteFile(path, updated)
}

// EmbeddedDate returns the EXIF DateTimeOriginal of a JPEG or TIFF file.
//
// ok is false when the file has no EXIF data or no such field.
func EmbeddedDate(path string) (date time.Time, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	var tiff []byte
	if kindOf(path) == kindTIFF {
		tiff = data
	} else {
		segs, _, err := jpegSegments(data)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("read exif %s: %w", path, err)
		}
		for _, seg := range segs {
			if seg.isExif() {
				tiff = seg.payload()[len(exifHeader):]
				break
			}
		}
	}
	if tiff == nil {
		return time.Time{}, false, nil
	}

	s, found := readExifDate(tiff)
	if !found {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse(exifDateLayout, s)
	if err != nil {
		return time.Time{}, false, nil
	}
	return parsed, true, nil
}

// segment is one marker segment of a JPEG header, marker bytes included.
type segment []byte

func (s segment) marker() byte { return s[1] }

func (s segment) payload() []byte { return s[4:] }

func (s segment) isExif() bool {
	return s.marker() == markerAPP1 && bytes.HasPrefix(s.payload(), exifHeader)
}

// jpegSegments splits the header of a JPEG stream into segments. rest holds
// everything from the start-of-scan marker onwards.
func jpegSegments(data []byte) (segs []segment, rest []byte, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, ErrNotJPEG
	}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, nil, fmt.Errorf("invalid marker at offset %d", i)
		}
		if i+1 < len(data) && data[i+1] == 0xFF {
			i++ // fill byte
			continue
		}
		if i+1 >= len(data) {
			break
		}

		marker := data[i+1]
		if marker == markerSOS || marker == markerEOI {
			return segs, data[i:], nil
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			segs = append(segs, segment(data[i:i+2]))
			i += 2
			continue
		}

		if i+4 > len(data) {
			return nil, nil, fmt.Errorf("truncated segment at offset %d", i)
		}
		length := int(binary.BigEndian.Uint16(data[i+2:]))
		end := i + 2 + length
		if length < 2 || end > len(data) {
			return nil, nil, fmt.Errorf("bad segment length at offset %d", i)
		}
		segs = append(segs, segment(data[i:end]))
		i = end
	}
	return segs, nil, nil
}

// spliceExif puts app1 in place of the first EXIF segment and drops any
// others. Without one, app1 goes after the leading APP0 (JFIF) segments.
func spliceExif(segs []segment, rest, app1 []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, markerSOI})

	hasExif := slices.ContainsFunc(segs, segment.isExif)
	inserted := false
	for _, seg := range segs {
		if seg.isExif() {
			if !inserted {
				buf.Write(app1)
				inserted = true
			}
			continue
		}
		if !inserted && !hasExif && seg.marker() != markerAPP0 {
			buf.Write(app1)
			inserted = true
		}
		buf.Write(seg)
	}
	if !inserted {
		buf.Write(app1)
	}
	buf.Write(rest)
	return buf.Bytes()
}

// exifSegment wraps a TIFF stream in an APP1 segment.
func exifSegment(tiff []byte) []byte {
	var seg bytes.Buffer
	seg.Write([]byte{0xFF, markerAPP1})
	_ = binary.Write(&seg, binary.BigEndian, uint16(len(exifHeader)+len(tiff)+2))
	seg.Write(exifHeader)
	seg.Write(tiff)
	return seg.Bytes()
}

// byteOrder is the byte order of a TIFF stream.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// ifdEntry is one IFD entry. Entries read from a stream keep their raw
// 12 bytes, so value offsets into the original stream stay valid.
type ifdEntry struct {
	tag   uint16
	raw   []byte
	typ   uint16
	count uint32
	value []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	v := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(v)), value: v}
}

func longEntry(order byteOrder, tag uint16, n uint32) ifdEntry {
	return ifdEntry{tag: tag, typ: typeLong, count: 1, value: order.AppendUint32(nil, n)}
}

// tiffHeader returns the byte order and IFD0 offset of a TIFF stream.
func tiffHeader(tiff []byte) (byteOrder, uint32, error) {
	if len(tiff) < 8 {
		return nil, 0, ErrNotTIFF
	}

	var order byteOrder
	switch string(tiff[:2]) {
	case "MM":
		order = binary.BigEndian
	case "II":
		order = binary.LittleEndian
	default:
		return nil, 0, ErrNotTIFF
	}
	if order.Uint16(tiff[2:]) != 42 {
		return nil, 0, ErrNotTIFF
	}
	return order, order.Uint32(tiff[4:]), nil
}

// readIFD returns the entries of the IFD at off and its next-IFD offset.
// Offset zero is an empty IFD.
func readIFD(tiff []byte, order byteOrder, off uint32) ([]ifdEntry, uint32, error) {
	if off == 0 {
		return nil, 0, nil
	}
	if uint64(off)+2 > uint64(len(tiff)) {
		return nil, 0, fmt.Errorf("IFD offset %d out of range", off)
	}

	n := uint64(order.Uint16(tiff[off:]))
	end := uint64(off) + 2 + 12*n
	if end+4 > uint64(len(tiff)) {
		return nil, 0, fmt.Errorf("IFD at %d truncated", off)
	}

	entries := make([]ifdEntry, 0, n)
	for at := uint64(off) + 2; at < end; at += 12 {
		raw := tiff[at : at+12]
		entries = append(entries, ifdEntry{tag: order.Uint16(raw), raw: raw})
	}
	return entries, order.Uint32(tiff[end:]), nil
}

// asciiValue returns the string held by an ASCII entry.
func asciiValue(tiff []byte, order byteOrder, e ifdEntry) (string, bool) {
	if e.raw == nil || order.Uint16(e.raw[2:]) != typeASCII {
		return "", false
	}

	count := uint64(order.Uint32(e.raw[4:]))
	var v []byte
	if count <= 4 {
		v = e.raw[8 : 8+count]
	} else {
		off := uint64(order.Uint32(e.raw[8:]))
		if off+count > uint64(len(tiff)) {
			return "", false
		}
		v = tiff[off : off+count]
	}
	return string(bytes.TrimRight(v, "\x00")), true
}

func lookup(entries []ifdEntry, tag uint16) (ifdEntry, bool) {
	for _, e := range entries {
		if e.tag == tag {
			return e, true
		}
	}
	return ifdEntry{}, false
}

// merge replaces the entries of entries whose tags appear in updates and
// adds the rest, keeping tag order.
func merge(entries []ifdEntry, updates ...ifdEntry) []ifdEntry {
	out := slices.DeleteFunc(slices.Clone(entries), func(e ifdEntry) bool {
		return slices.ContainsFunc(updates, func(u ifdEntry) bool { return u.tag == e.tag })
	})
	out = append(out, updates...)
	slices.SortStableFunc(out, func(a, b ifdEntry) int { return cmp.Compare(a.tag, b.tag) })
	return out
}

// appendIFD writes an IFD and its out-of-line values at the end of tiff
// and returns the grown stream and the IFD's offset.
func appendIFD(tiff []byte, order byteOrder, entries []ifdEntry, next uint32) ([]byte, uint32) {
	if len(tiff)%2 == 1 {
		tiff = append(tiff, 0)
	}
	off := uint32(len(tiff))
	dataOff := off + uint32(2+12*len(entries)+4)

	var data []byte
	tiff = order.AppendUint16(tiff, uint16(len(entries)))
	for _, e := range entries {
		if e.raw != nil {
			tiff = append(tiff, e.raw...)
			continue
		}
		tiff = order.AppendUint16(tiff, e.tag)
		tiff = order.AppendUint16(tiff, e.typ)
		tiff = order.AppendUint32(tiff, e.count)
		if len(e.value) <= 4 {
			field := make([]byte, 4)
			copy(field, e.value)
			tiff = append(tiff, field...)
			continue
		}
		tiff = order.AppendUint32(tiff, dataOff+uint32(len(data)))
		data = append(data, e.value...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	tiff = order.AppendUint32(tiff, next)
	return append(tiff, data...), off
}

// updateTIFF returns a copy of tiff carrying fields. A nil tiff starts a
// fresh big-endian stream.
//
// The existing stream is kept byte for byte. The rewritten Exif IFD and
// IFD0 are appended and the header is pointed at the new IFD0, so entries
// not named by fields keep their values and offsets.
func updateTIFF(tiff []byte, fields exifFields) ([]byte, error) {
	var order byteOrder = binary.BigEndian
	var ifd0Off uint32
	buf := []byte{'M', 'M', 0, 42, 0, 0, 0, 0}
	if tiff != nil {
		var err error
		order, ifd0Off, err = tiffHeader(tiff)
		if err != nil {
			return nil, err
		}
		buf = slices.Clone(tiff)
	}

	ifd0, next, err := readIFD(buf, order, ifd0Off)
	if err != nil {
		return nil, err
	}
	var exifOff uint32
	if ptr, ok := lookup(ifd0, tagExifIFDPointer); ok {
		exifOff = order.Uint32(ptr.raw[8:])
	}
	exifIFD, exifNext, err := readIFD(buf, order, exifOff)
	if err != nil {
		return nil, err
	}

	buf, exifOff = appendIFD(buf, order, merge(exifIFD,
		asciiEntry(tagDateTimeOriginal, fields.stamp),
		asciiEntry(tagDateTimeDigitized, fields.stamp),
	), exifNext)

	updates := []ifdEntry{
		asciiEntry(tagImageDescription, fields.description),
		asciiEntry(tagDateTime, fields.stamp),
		longEntry(order, tagExifIFDPointer, exifOff),
	}
	if fields.artist != "" {
		updates = append(updates, asciiEntry(tagArtist, fields.artist))
	}
	buf, ifd0Off = appendIFD(buf, order, merge(ifd0, updates...), next)

	order.PutUint32(buf[4:], ifd0Off)
	return buf, nil
}

// current reports whether tiff already holds fields.
func (f exifFields) current(tiff []byte) bool {
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return false
	}
	ifd0, _, err := readIFD(tiff, order, ifd0Off)
	if err != nil {
		return false
	}

	want := map[uint16]string{
		tagImageDescription: f.description,
		tagDateTime:         f.stamp,
	}
	if f.artist != "" {
		want[tagArtist] = f.artist
	}
	for tag, v := range want {
		e, ok := lookup(ifd0, tag)
		if !ok {
			return false
		}
		if s, ok := asciiValue(tiff, order, e); !ok || s != v {
			return false
		}
	}

	ptr, ok := lookup(ifd0, tagExifIFDPointer)
	if !ok {
		return false
	}
	exifIFD, _, err := readIFD(tiff, order, order.Uint32(ptr.raw[8:]))
	if err != nil {
		return false
	}
	for _, tag := range []uint16{tagDateTimeOriginal, tagDateTimeDigitized} {
		e, ok := lookup(exifIFD, tag)
		if !ok {
			return false
		}
		if s, ok := asciiValue(tiff, order, e); !ok || s != f.stamp {
			return false
		}
	}
	return true
}

// readExifDate finds DateTimeOriginal in a TIFF stream of either byte order.
func readExifDate(tiff []byte) (string, bool) {
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return "", false
	}
	ifd0, _, err := readIFD(tiff, order, ifd0Off)
	if err != nil {
		return "", false
	}
	ptr, ok := lookup(ifd0, tagExifIFDPointer)
	if !ok {
		return "", false
	}
	exifIFD, _, err := readIFD(tiff, order, order.Uint32(ptr.raw[8:]))
	if err != nil {
		return "", false
	}
	e, ok := lookup(exifIFD, tagDateTimeOriginal)
	if !ok {
		return "", false
	}
	return asciiValue(tiff, order, e)
}
