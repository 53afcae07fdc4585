package media

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/rwcarlsen/goexif/exif"
)

// exifInfo is the subset of EXIF the extractor cares about.
type exifInfo struct {
	CapturedAt  time.Time
	Orientation int
	UserComment string
}

// readEXIF decodes the EXIF block of a JPEG or TIFF file. A file without
// EXIF, or with a damaged block, yields ok=false; EXIF is never a reason to
// reject an image.
func readEXIF(data []byte) (exifInfo, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return exifInfo{}, false
	}

	var info exifInfo
	if t, ok := capturedAt(x); ok {
		info.CapturedAt = t
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			info.Orientation = v
		}
	}
	if tag, err := x.Get(exif.UserComment); err == nil {
		info.UserComment = decodeUserComment(tag.Val)
	}
	return info, true
}

// exifTimeLayout is the EXIF date format. The value carries no zone.
const exifTimeLayout = "2006:01:02 15:04:05"

// capturedAt reads DateTimeOriginal, falling back to DateTime. The wall-clock
// value is stored as UTC so the result never depends on the host time zone.
func capturedAt(x *exif.Exif) (time.Time, bool) {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := time.ParseInLocation(exifTimeLayout, strings.TrimSpace(strings.TrimRight(s, "\x00")), time.UTC)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// swapsAxes reports whether an EXIF orientation rotates the image by 90
// degrees, so displayed width and height are the stored height and width.
func swapsAxes(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

// decodeUserComment decodes an EXIF UserComment: an 8-byte character code
// followed by the comment bytes.
func decodeUserComment(val []byte) string {
	if len(val) < 8 {
		return strings.TrimRight(string(val), "\x00 ")
	}
	code, body := string(val[:8]), val[8:]

	var s string
	switch {
	case strings.HasPrefix(code, "UNICODE"):
		s = decodeUTF16(body)
	default:
		// ASCII, undefined and JIS are read as bytes.
		s = string(body)
	}
	return strings.TrimRight(s, "\x00 ")
}

// decodeUTF16 decodes UTF-16 text whose byte order is not recorded. A BOM
// wins; otherwise the order whose high bytes are mostly zero is assumed,
// which holds for the mostly-ASCII text generators write.
func decodeUTF16(b []byte) string {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}

	var order binary.ByteOrder = binary.BigEndian
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		b = b[2:]
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		order = binary.LittleEndian
		b = b[2:]
	default:
		var evenZero, oddZero int
		for i := 0; i+1 < len(b); i += 2 {
			if b[i] == 0 {
				evenZero++
			}
			if b[i+1] == 0 {
				oddZero++
			}
		}
		if oddZero > evenZero {
			order = binary.LittleEndian
		}
	}

	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = order.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}
