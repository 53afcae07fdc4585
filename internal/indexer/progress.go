package indexer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Progress tracks the scan in flight.
type Progress struct {
	mu        sync.Mutex
	root      string
	startedAt time.Time
	running   bool

	foldersTotal atomic.Int64
	imagesTotal  atomic.Int64
	foldersDone  atomic.Int64
	imagesDone   atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Root         string    `json:"root,omitempty"`
	Running      bool      `json:"running"`
	StartedAt    time.Time `json:"startedAt,omitzero"`
	FoldersTotal int64     `json:"foldersTotal"`
	FoldersDone  int64     `json:"foldersDone"`
	ImagesTotal  int64     `json:"imagesTotal"`
	ImagesDone   int64     `json:"imagesDone"`
}

func (p *Progress) begin(root string, start time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = root
	p.startedAt = start
	p.running = true
	p.foldersTotal.Store(0)
	p.imagesTotal.Store(0)
	p.foldersDone.Store(0)
	p.imagesDone.Store(0)
}

func (p *Progress) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *Progress) setTotals(folders, images int) {
	p.foldersTotal.Store(int64(folders))
	p.imagesTotal.Store(int64(images))
}

func (p *Progress) folderDone() { p.foldersDone.Add(1) }
func (p *Progress) imageDone()  { p.imagesDone.Add(1) }

// Snapshot returns the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		Root:         p.root,
		Running:      p.running,
		StartedAt:    p.startedAt,
		FoldersTotal: p.foldersTotal.Load(),
		FoldersDone:  p.foldersDone.Load(),
		ImagesTotal:  p.imagesTotal.Load(),
		ImagesDone:   p.imagesDone.Load(),
	}
}
