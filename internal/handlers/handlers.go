package handlers

import (
	"context"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
	"aigen-index/internal/usecases"
)

// Store is the part of the index store the HTTP layer reads.
type Store interface {
	usecases.FolderReader
	usecases.ImageReader
	GetFolder(ctx context.Context, id string) (*database.Folder, error)
	GetChildFolders(ctx context.Context, id string) ([]database.Folder, error)
	Stats(ctx context.Context) (database.Stats, error)
	Ping(ctx context.Context) error
}

// Scheduler is the part of the rescan scheduler the HTTP layer drives.
type Scheduler interface {
	IsReady() bool
	IsScanning() bool
	Trigger()
	Status() indexer.Status
}

// Handlers holds the dependencies of every HTTP handler.
type Handlers struct {
	store          Store
	scheduler      Scheduler
	rootFolders    *usecases.GetRootFolders
	allImages      *usecases.GetAllImages
	imagesByFolder *usecases.GetImagesByFolderID
}

// New creates Handlers over the index store and the rescan scheduler.
func New(store Store, scheduler Scheduler) *Handlers {
	return &Handlers{
		store:          store,
		scheduler:      scheduler,
		rootFolders:    usecases.NewGetRootFolders(store),
		allImages:      usecases.NewGetAllImages(store),
		imagesByFolder: usecases.NewGetImagesByFolderID(store),
	}
}
