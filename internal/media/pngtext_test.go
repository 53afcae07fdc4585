package media

import (
	"testing"
)

func TestReadPNGText(t *testing.T) {
	base := encodePNG(t, 4, 4)
	data := withChunks(t, base,
		tEXt("Title", "caf\xe9"), // Latin-1
		tEXt("Author", "zoë"),     // UTF-8 written by a non-conforming tool
		zTXt(t, "Description", "compressed text"),
		iTXt(t, "XML:com.adobe.xmp", "<x/>", false),
	)

	chunks, err := readPNGText(data)
	if err != nil {
		t.Fatalf("readPNGText: %v", err)
	}

	want := []textChunk{
		{"Title", "café"},
		{"Author", "zoë"},
		{"Description", "compressed text"},
		{"XML:com.adobe.xmp", "<x/>"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestReadPNGTextErrors(t *testing.T) {
	base := encodePNG(t, 4, 4)

	t.Run("not png", func(t *testing.T) {
		if _, err := readPNGText([]byte("GIF89a")); err == nil {
			t.Error("expected error for non-PNG data")
		}
	})

	t.Run("bad compression keeps earlier chunks", func(t *testing.T) {
		bad := pngChunk("zTXt", []byte("broken\x00\x00not zlib"))
		data := withChunks(t, base, tEXt("ok", "first"), bad)

		chunks, err := readPNGText(data)
		if err == nil {
			t.Fatal("expected error for broken zTXt")
		}
		if len(chunks) != 1 || chunks[0].Keyword != "ok" {
			t.Errorf("chunks = %+v, want the chunk read before the error", chunks)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data := withChunks(t, base, tEXt("parameters", "some text"))
		if _, err := readPNGText(data[:len(data)-20]); err == nil {
			t.Error("expected error for truncated chunk")
		}
	})
}
