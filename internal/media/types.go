package media

import (
	"time"

	"aigen-index/internal/mediatypes"
)

// Metadata holds the attributes derived from an image file's bytes.
// Nothing in it depends on the wall clock or on filesystem stat data, so
// identical bytes always produce an identical Metadata.
type Metadata struct {
	Format   mediatypes.Format `json:"format"`
	MimeType string            `json:"mimeType"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	FileSize int64             `json:"fileSize"`
	// Checksum is the hex BLAKE2b-256 digest of the file bytes.
	Checksum string `json:"checksum"`
	// CapturedAt is the EXIF DateTimeOriginal, when the file carries one.
	CapturedAt time.Time   `json:"capturedAt,omitzero"`
	Generation *Generation `json:"generation,omitempty"`
}

// Generation holds best-effort generation parameters recovered from text
// embedded in the image.
type Generation struct {
	// Source names the tool convention the parameters were recognised as:
	// "a1111" (parameters text), "comfyui" (prompt/workflow JSON) or "text".
	Source         string  `json:"source"`
	Prompt         string  `json:"prompt,omitempty"`
	NegativePrompt string  `json:"negativePrompt,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Sampler        string  `json:"sampler,omitempty"`
	CFGScale       float64 `json:"cfgScale,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
	Size           string  `json:"size,omitempty"`
	Model          string  `json:"model,omitempty"`
	ModelHash      string  `json:"modelHash,omitempty"`
	// Settings holds every key/value pair of the A1111 settings line,
	// including the ones promoted to typed fields above.
	Settings map[string]string `json:"settings,omitempty"`
	// ComfyPrompt and Workflow are the raw ComfyUI JSON documents.
	ComfyPrompt string `json:"comfyPrompt,omitempty"`
	Workflow    string `json:"workflow,omitempty"`
	// Raw maps every embedded text keyword to its decoded value.
	Raw map[string]string `json:"raw,omitempty"`
}
