package media

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// gradient returns a small image with a gradient pattern.
func gradient(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(width, height)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

// pngChunk builds a complete PNG chunk including length and CRC.
func pngChunk(kind string, body []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(body)))
	buf.WriteString(kind)
	buf.Write(body)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(body)
	_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func tEXt(keyword, text string) []byte {
	return pngChunk("tEXt", []byte(keyword+"\x00"+text))
}

func zTXt(t *testing.T, keyword, text string) []byte {
	t.Helper()
	return pngChunk("zTXt", append([]byte(keyword+"\x00\x00"), deflate(t, text)...))
}

func iTXt(t *testing.T, keyword, text string, compressed bool) []byte {
	t.Helper()
	body := []byte(keyword + "\x00")
	if compressed {
		body = append(body, 1, 0)
	} else {
		body = append(body, 0, 0)
	}
	body = append(body, []byte("en\x00\x00")...)
	if compressed {
		body = append(body, deflate(t, text)...)
	} else {
		body = append(body, text...)
	}
	return pngChunk("iTXt", body)
}

func deflate(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// withChunks inserts extra chunks right before IEND.
func withChunks(t *testing.T, pngData []byte, chunks ...[]byte) []byte {
	t.Helper()
	iend := bytes.LastIndex(pngData, []byte("IEND"))
	if iend < 4 {
		t.Fatal("no IEND chunk")
	}
	at := iend - 4
	out := append([]byte{}, pngData[:at]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, pngData[at:]...)
}

// exifTIFF builds a little-endian TIFF block with Orientation and DateTime
// in IFD0 and a UserComment in the Exif sub-IFD.
func exifTIFF(orientation uint16, dateTime string, userComment []byte) []byte {
	le := binary.LittleEndian
	const (
		ifd0Off     = 8
		exifIFDOff  = ifd0Off + 2 + 3*12 + 4
		dateTimeOff = exifIFDOff + 2 + 12 + 4
		commentOff  = dateTimeOff + 20
	)

	buf := make([]byte, commentOff+len(userComment))
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], ifd0Off)

	entry := func(at int, tag, typ uint16, count, value uint32) {
		le.PutUint16(buf[at:], tag)
		le.PutUint16(buf[at+2:], typ)
		le.PutUint32(buf[at+4:], count)
		le.PutUint32(buf[at+8:], value)
	}

	p := ifd0Off
	le.PutUint16(buf[p:], 3)
	entry(p+2, 0x0112, 3, 1, uint32(orientation))
	entry(p+14, 0x0132, 2, 20, dateTimeOff)
	entry(p+26, 0x8769, 4, 1, exifIFDOff)
	le.PutUint32(buf[p+38:], 0)

	p = exifIFDOff
	le.PutUint16(buf[p:], 1)
	entry(p+2, 0x9286, 7, uint32(len(userComment)), commentOff)
	le.PutUint32(buf[p+14:], 0)

	copy(buf[dateTimeOff:], dateTime+"\x00")
	copy(buf[commentOff:], userComment)
	return buf
}

// withEXIF inserts an APP1 Exif segment right after the JPEG SOI marker.
func withEXIF(jpegData, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := append([]byte{}, jpegData[:2]...)
	out = append(out, seg...)
	return append(out, jpegData[2:]...)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
