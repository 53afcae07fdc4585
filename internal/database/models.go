package database

import (
	"time"

	"aigen-index/internal/media"
)

// Folder is an indexed directory. ParentID is empty for a root folder.
type Folder struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
}

// Image is an indexed image file.
type Image struct {
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	FolderID string         `json:"folderId"`
	Name     string         `json:"name"`
	Metadata media.Metadata `json:"metadata"`
	// ModTime is the filesystem modification time seen by the scan that
	// last wrote the record.
	ModTime       time.Time `json:"modTime"`
	LastScannedAt time.Time `json:"lastScannedAt"`
}

// ImageUpsert carries the fields the scanner supplies for an image write.
type ImageUpsert struct {
	Path     string
	FolderID string
	Metadata *media.Metadata
	ModTime  time.Time
}

// UpsertResult reports what an upsert did to the stored record.
type UpsertResult int

const (
	// UpsertUnchanged means the stored record already matched.
	UpsertUnchanged UpsertResult = iota
	// UpsertInserted means a new record was created.
	UpsertInserted
	// UpsertUpdated means the record's content changed.
	UpsertUpdated
	// UpsertTouched means the image content was identical and only its scan
	// bookkeeping (lastScannedAt, modTime, folder) was refreshed.
	UpsertTouched
)

func (r UpsertResult) String() string {
	switch r {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	case UpsertTouched:
		return "touched"
	default:
		return "unchanged"
	}
}

// Stats summarises the contents of the index.
type Stats struct {
	Folders        int            `json:"folders"`
	RootFolders    int            `json:"rootFolders"`
	Images         int            `json:"images"`
	ImagesByFormat map[string]int `json:"imagesByFormat"`
	TotalBytes     int64          `json:"totalBytes"`
}
