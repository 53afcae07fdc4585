package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support

	"aigen-index/internal/mediatypes"
)

const (
	// MaxImageDimension is the largest width or height accepted from a header.
	// Headers claiming more are treated as corrupt.
	MaxImageDimension = 1 << 16

	// MaxVerifyPixels bounds the full decode done by VerifyDecode.
	// Larger images are checked at header level only.
	MaxVerifyPixels = 100_000_000
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// decodeHeader reads the image header from data without decoding pixels.
// The caller has already matched the extension to an image format, so bytes
// that no decoder recognises are corrupt, as is a header that fails to parse.
// The returned error has no path; the caller fills it in.
func decodeHeader(data []byte) (ImageDimensions, mediatypes.Format, *ExtractionError) {
	config, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			err = errors.New("no decoder recognises the image data")
		}
		return ImageDimensions{}, mediatypes.FormatUnknown, newExtractionError("", ErrCorruptFile, err)
	}

	format := mediatypes.FormatForDecoder(name)
	if format == mediatypes.FormatUnknown {
		return ImageDimensions{}, format, newExtractionError("", ErrUnsupportedFormat, fmt.Errorf("decoder %q", name))
	}
	if config.Width <= 0 || config.Height <= 0 ||
		config.Width > MaxImageDimension || config.Height > MaxImageDimension {
		return ImageDimensions{}, format, newExtractionError("", ErrCorruptFile,
			fmt.Errorf("implausible dimensions %dx%d", config.Width, config.Height))
	}

	return ImageDimensions{Width: config.Width, Height: config.Height}, format, nil
}

// verifyDecode fully decodes data, applying EXIF auto-orientation the way
// a viewer would, and returns the oriented dimensions.
func verifyDecode(data []byte) (ImageDimensions, *ExtractionError) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return ImageDimensions{}, newExtractionError("", ErrCorruptFile, err)
	}
	b := img.Bounds()
	return ImageDimensions{Width: b.Dx(), Height: b.Dy()}, nil
}
