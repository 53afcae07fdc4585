package media

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"aigen-index/internal/filesystem"
	"aigen-index/internal/logging"
	"aigen-index/internal/mediatypes"
	"aigen-index/internal/metrics"
)

// ExtractorConfig configures an Extractor.
type ExtractorConfig struct {
	// VerifyDecode fully decodes every image instead of trusting its header.
	// Slower, but catches files truncated after a valid header.
	VerifyDecode bool
	// MaxFileSize rejects files larger than this many bytes as corrupt.
	// Zero means no limit.
	MaxFileSize int64
	Retry       filesystem.RetryConfig
}

// DefaultExtractorConfig returns the configuration used by the scanner
// unless overridden.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxFileSize: 512 << 20,
		Retry:       filesystem.DefaultRetryConfig(),
	}
}

// Extractor derives Metadata from image files. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// Extract reads the file at path and returns its metadata. On failure the
// error is an *ExtractionError whose kind is ErrUnsupportedFormat,
// ErrCorruptFile or ErrIO.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	start := time.Now()
	extFormat := mediatypes.FormatForPath(path)

	meta, err := e.extract(path, extFormat)

	label := extFormat.String()
	if meta != nil {
		label = meta.Format.String()
	}
	metrics.ExtractionsTotal.WithLabelValues(label, KindName(err)).Inc()
	metrics.ExtractionDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return meta, nil
}

func (e *Extractor) extract(path string, extFormat mediatypes.Format) (*Metadata, error) {
	if extFormat == mediatypes.FormatUnknown {
		return nil, newExtractionError(path, ErrUnsupportedFormat, nil)
	}

	data, err := e.readFile(path)
	if err != nil {
		return nil, err
	}

	dims, format, xerr := decodeHeader(data)
	if xerr != nil {
		xerr.Path = path
		return nil, xerr
	}
	if format != extFormat {
		logging.Debug("%s: extension says %s, content is %s", path, extFormat, format)
	}

	var exifData exifInfo
	if format.HasEXIF() {
		exifData, _ = readEXIF(data)
	}

	if e.config.VerifyDecode && dims.Width*dims.Height <= MaxVerifyPixels {
		oriented, xerr := verifyDecode(data)
		if xerr != nil {
			xerr.Path = path
			return nil, xerr
		}
		dims = oriented
	} else if swapsAxes(exifData.Orientation) {
		dims.Width, dims.Height = dims.Height, dims.Width
	}

	sum := blake2b.Sum256(data)
	meta := &Metadata{
		Format:     format,
		MimeType:   mediatypes.GetMimeType(format),
		Width:      dims.Width,
		Height:     dims.Height,
		FileSize:   int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
		CapturedAt: exifData.CapturedAt,
	}

	texts := make(map[string]string)
	if format == mediatypes.FormatPNG {
		chunks, err := readPNGText(data)
		if err != nil {
			logging.Debug("%s: stopped reading PNG text: %v", path, err)
		}
		for _, c := range chunks {
			// first occurrence of a keyword wins
			if _, dup := texts[c.Keyword]; !dup {
				texts[c.Keyword] = c.Text
			}
		}
	}
	if exifData.UserComment != "" {
		if _, ok := texts["parameters"]; !ok {
			texts["parameters"] = exifData.UserComment
		}
	}
	meta.Generation = parseGeneration(texts)

	return meta, nil
}

func (e *Extractor) readFile(path string) ([]byte, error) {
	f, err := filesystem.OpenWithRetry(path, e.config.Retry)
	if err != nil {
		return nil, newExtractionError(path, ErrIO, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	var r io.Reader = f
	if e.config.MaxFileSize > 0 {
		r = io.LimitReader(f, e.config.MaxFileSize+1)
	}
	data, err := io.ReadAll(r)
	metrics.ExtractionBytesRead.Add(float64(len(data)))
	if err != nil {
		return nil, newExtractionError(path, ErrIO, err)
	}
	if e.config.MaxFileSize > 0 && int64(len(data)) > e.config.MaxFileSize {
		return nil, newExtractionError(path, ErrCorruptFile,
			fmt.Errorf("file exceeds %d bytes", e.config.MaxFileSize))
	}
	return data, nil
}
