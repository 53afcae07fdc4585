package indexer

import (
	"time"

	"aigen-index/internal/media"
)

// ItemError records a per-item failure during a scan.
type ItemError struct {
	Path string `json:"path"`
	// Kind is "unsupported", "corrupt" or "io" for extraction errors and
	// the failed operation for store errors.
	Kind    string `json:"kind"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func extractionItemError(path string, err error) ItemError {
	return ItemError{Path: path, Kind: media.KindName(err), Message: err.Error(), Err: err}
}

func storeItemError(path, operation string, err error) ItemError {
	return ItemError{Path: path, Kind: operation, Message: err.Error(), Err: err}
}

// Summary reports what one scan did.
type Summary struct {
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	FoldersInserted  int `json:"foldersInserted"`
	FoldersUpdated   int `json:"foldersUpdated"`
	FoldersDeleted   int `json:"foldersDeleted"`
	FoldersUnchanged int `json:"foldersUnchanged"`

	ImagesInserted  int `json:"imagesInserted"`
	ImagesUpdated   int `json:"imagesUpdated"`
	ImagesTouched   int `json:"imagesTouched"`
	ImagesDeleted   int `json:"imagesDeleted"`
	ImagesUnchanged int `json:"imagesUnchanged"`

	// SkippedFolders lists missing folders that could not be deleted because
	// they still had children, and folders whose reconciliation was aborted.
	SkippedFolders []string `json:"skippedFolders"`
	// SymlinksSkipped lists directories not entered because their real path
	// had already been walked.
	SymlinksSkipped  []string    `json:"symlinksSkipped"`
	ExtractionErrors []ItemError `json:"extractionErrors"`
	StoreErrors      []ItemError `json:"storeErrors"`
}

func newSummary(root string, start time.Time) *Summary {
	return &Summary{
		Root:             root,
		StartedAt:        start,
		SkippedFolders:   []string{},
		SymlinksSkipped:  []string{},
		ExtractionErrors: []ItemError{},
		StoreErrors:      []ItemError{},
	}
}

// Mutations returns the number of store writes the scan performed.
func (s *Summary) Mutations() int {
	return s.FoldersInserted + s.FoldersUpdated + s.FoldersDeleted +
		s.ImagesInserted + s.ImagesUpdated + s.ImagesTouched + s.ImagesDeleted
}

// Duration returns how long the scan ran.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
