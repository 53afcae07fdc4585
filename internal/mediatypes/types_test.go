package mediatypes

import "testing"

func TestFormatForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Format
	}{
		{".png", FormatPNG},
		{".PNG", FormatPNG},
		{".jpg", FormatJPEG},
		{".jpeg", FormatJPEG},
		{".JFIF", FormatJPEG},
		{".gif", FormatGIF},
		{".webp", FormatWebP},
		{".bmp", FormatBMP},
		{".tif", FormatTIFF},
		{".tiff", FormatTIFF},
		{".txt", FormatUnknown},
		{".mp4", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := FormatForExtension(tt.ext); got != tt.want {
				t.Errorf("FormatForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestIsImagePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/lib/catA/cat1.png", true},
		{"/lib/catA/CAT2.JPG", true},
		{"/lib/notes.txt", false},
		{"/lib/noext", false},
		{"/lib/archive.png.bak", false},
	}

	for _, tt := range tests {
		if got := IsImagePath(tt.path); got != tt.want {
			t.Errorf("IsImagePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFormatForDecoder(t *testing.T) {
	for _, name := range []string{"png", "jpeg", "gif", "webp", "bmp", "tiff"} {
		if got := FormatForDecoder(name); string(got) != name {
			t.Errorf("FormatForDecoder(%q) = %q", name, got)
		}
	}
	if got := FormatForDecoder("svg"); got != FormatUnknown {
		t.Errorf("FormatForDecoder(svg) = %q, want unknown", got)
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(FormatPNG); got != "image/png" {
		t.Errorf("GetMimeType(png) = %q", got)
	}
	if got := GetMimeType(FormatUnknown); got != "application/octet-stream" {
		t.Errorf("GetMimeType(unknown) = %q", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if !FormatJPEG.HasEXIF() || !FormatTIFF.HasEXIF() {
		t.Error("JPEG and TIFF should report EXIF support")
	}
	if FormatPNG.HasEXIF() {
		t.Error("PNG should not report EXIF support")
	}
	if FormatUnknown.String() != "unknown" {
		t.Errorf("FormatUnknown.String() = %q", FormatUnknown.String())
	}
	if FormatWebP.String() != "webp" {
		t.Errorf("FormatWebP.String() = %q", FormatWebP.String())
	}
}
