package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aigen-index/internal/database"
)

// ErrInvalidRequest is returned when a request fails validation before any
// store access.
var ErrInvalidRequest = errors.New("invalid request")

// FolderReader is the part of the index store the folder queries read.
type FolderReader interface {
	GetRootFolders(ctx context.Context) ([]database.Folder, error)
}

// ImageReader is the part of the index store the image queries read.
type ImageReader interface {
	GetAllImages(ctx context.Context) ([]database.Image, error)
	GetImagesByFolderID(ctx context.Context, folderID string) ([]database.Image, error)
}

// GetRootFolders lists folders without a parent.
type GetRootFolders struct {
	folders FolderReader
}

// NewGetRootFolders creates the use case over folders.
func NewGetRootFolders(folders FolderReader) *GetRootFolders {
	return &GetRootFolders{folders: folders}
}

// Execute returns every root folder ordered by name.
func (uc *GetRootFolders) Execute(ctx context.Context) ([]database.Folder, error) {
	folders, err := uc.folders.GetRootFolders(ctx)
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []database.Folder{}
	}
	return folders, nil
}

// GetAllImages lists every indexed image.
type GetAllImages struct {
	images ImageReader
}

// NewGetAllImages creates the use case over images.
func NewGetAllImages(images ImageReader) *GetAllImages {
	return &GetAllImages{images: images}
}

// Execute returns all images, most recently scanned first.
func (uc *GetAllImages) Execute(ctx context.Context) ([]database.Image, error) {
	images, err := uc.images.GetAllImages(ctx)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []database.Image{}
	}
	return images, nil
}

// GetImagesByFolderIDRequest selects the folder whose direct images are
// listed.
type GetImagesByFolderIDRequest struct {
	FolderID string `json:"folderId"`
}

// GetImagesByFolderID lists the images directly inside one folder.
type GetImagesByFolderID struct {
	images ImageReader
}

// NewGetImagesByFolderID creates the use case over images.
func NewGetImagesByFolderID(images ImageReader) *GetImagesByFolderID {
	return &GetImagesByFolderID{images: images}
}

// Execute returns the folder's images ordered by path. A blank folder id is
// rejected with ErrInvalidRequest; an unknown one yields
// database.ErrNotFound.
func (uc *GetImagesByFolderID) Execute(ctx context.Context, req GetImagesByFolderIDRequest) ([]database.Image, error) {
	if strings.TrimSpace(req.FolderID) == "" {
		return nil, fmt.Errorf("%w: folder id is required", ErrInvalidRequest)
	}
	images, err := uc.images.GetImagesByFolderID(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []database.Image{}
	}
	return images, nil
}
