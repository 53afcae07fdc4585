package mediatypes

import (
	"path/filepath"
	"strings"
)

// Format identifies an image encoding.
type Format string

const (
	// FormatPNG is the Portable Network Graphics format, the usual container
	// for generation parameters.
	FormatPNG Format = "png"
	// FormatJPEG is JPEG/JFIF.
	FormatJPEG Format = "jpeg"
	// FormatGIF is the Graphics Interchange Format.
	FormatGIF Format = "gif"
	// FormatWebP is Google WebP.
	FormatWebP Format = "webp"
	// FormatBMP is Windows bitmap.
	FormatBMP Format = "bmp"
	// FormatTIFF is Tagged Image File Format.
	FormatTIFF Format = "tiff"
	// FormatUnknown marks files that are not a supported image.
	FormatUnknown Format = ""
)

// ImageExtensions maps lowercase file extensions to the format they denote.
var ImageExtensions = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".jfif": FormatJPEG,
	".gif":  FormatGIF,
	".webp": FormatWebP,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// MimeTypes maps formats to their MIME types.
var MimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatGIF:  "image/gif",
	FormatWebP: "image/webp",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
}

// FormatForExtension returns the Format for a file extension. The extension
// may be in any case and must include the leading dot.
func FormatForExtension(ext string) Format {
	return ImageExtensions[strings.ToLower(ext)]
}

// FormatForPath returns the Format implied by the path's extension.
func FormatForPath(path string) Format {
	return FormatForExtension(filepath.Ext(path))
}

// IsImagePath reports whether the path has a supported image extension.
func IsImagePath(path string) bool {
	return FormatForPath(path) != FormatUnknown
}

// FormatForDecoder maps the name returned by image.DecodeConfig to a Format.
func FormatForDecoder(name string) Format {
	switch f := Format(name); f {
	case FormatPNG, FormatJPEG, FormatGIF, FormatWebP, FormatBMP, FormatTIFF:
		return f
	default:
		return FormatUnknown
	}
}

// GetMimeType returns the MIME type for a format, or
// "application/octet-stream" if the format is not recognized.
func GetMimeType(f Format) string {
	if mime, ok := MimeTypes[f]; ok {
		return mime
	}
	return "application/octet-stream"
}

// HasEXIF reports whether files of this format may carry an EXIF block.
func (f Format) HasEXIF() bool {
	return f == FormatJPEG || f == FormatTIFF
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
