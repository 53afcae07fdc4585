package media

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// maxTextChunk bounds a single decompressed text chunk. ComfyUI workflows
// run to a few hundred KiB; anything far beyond that is not metadata.
const maxTextChunk = 16 << 20

// textChunk is one decoded tEXt, zTXt or iTXt chunk.
type textChunk struct {
	Keyword string
	Text    string
}

// readPNGText returns the text chunks of a PNG stream in file order.
// It stops at IEND or at the first structurally broken chunk; chunks read
// up to that point are still returned alongside the error.
func readPNGText(data []byte) ([]textChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("missing PNG signature")
	}

	var chunks []textChunk
	pos := len(pngSignature)

	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length

		if length < 0 || end+4 > len(data) {
			return chunks, fmt.Errorf("chunk %q overruns file", kind)
		}
		body := data[start:end]
		pos = end + 4 // skip CRC

		var (
			chunk textChunk
			err   error
			ok    = true
		)
		switch kind {
		case "tEXt":
			chunk, err = parseTEXt(body)
		case "zTXt":
			chunk, err = parseZTXt(body)
		case "iTXt":
			chunk, err = parseITXt(body)
		case "IEND":
			return chunks, nil
		default:
			ok = false
		}
		if !ok {
			continue
		}
		if err != nil {
			return chunks, fmt.Errorf("%s chunk: %w", kind, err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func splitKeyword(body []byte) (string, []byte, error) {
	i := bytes.IndexByte(body, 0)
	if i < 1 || i > 79 {
		return "", nil, errors.New("invalid keyword")
	}
	return latin1(body[:i]), body[i+1:], nil
}

func parseTEXt(body []byte) (textChunk, error) {
	keyword, rest, err := splitKeyword(body)
	if err != nil {
		return textChunk{}, err
	}
	return textChunk{Keyword: keyword, Text: decodeText(rest)}, nil
}

func parseZTXt(body []byte) (textChunk, error) {
	keyword, rest, err := splitKeyword(body)
	if err != nil {
		return textChunk{}, err
	}
	if len(rest) < 1 || rest[0] != 0 {
		return textChunk{}, errors.New("unknown compression method")
	}
	text, err := inflate(rest[1:])
	if err != nil {
		return textChunk{}, err
	}
	return textChunk{Keyword: keyword, Text: decodeText(text)}, nil
}

func parseITXt(body []byte) (textChunk, error) {
	keyword, rest, err := splitKeyword(body)
	if err != nil {
		return textChunk{}, err
	}
	if len(rest) < 2 {
		return textChunk{}, errors.New("truncated header")
	}
	compressed := rest[0] == 1
	method := rest[1]
	rest = rest[2:]

	// language tag, then translated keyword, both NUL terminated
	for n := 0; n < 2; n++ {
		i := bytes.IndexByte(rest, 0)
		if i < 0 {
			return textChunk{}, errors.New("truncated header")
		}
		rest = rest[i+1:]
	}

	if compressed {
		if method != 0 {
			return textChunk{}, errors.New("unknown compression method")
		}
		rest, err = inflate(rest)
		if err != nil {
			return textChunk{}, err
		}
	}
	if !utf8.Valid(rest) {
		return textChunk{}, errors.New("text is not UTF-8")
	}
	return textChunk{Keyword: keyword, Text: string(rest)}, nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxTextChunk+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxTextChunk {
		return nil, errors.New("decompressed text too large")
	}
	return out, nil
}

// decodeText decodes tEXt/zTXt payloads. PNG defines them as Latin-1, but
// several generators write UTF-8 anyway; valid non-ASCII UTF-8 is kept as is.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return latin1(b)
}

func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
