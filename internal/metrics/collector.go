package metrics

import (
	"context"
	"time"

	"aigen-index/internal/logging"
)

// Stats holds the index counts the collector publishes.
type Stats struct {
	Folders        int
	RootFolders    int
	ImagesByFormat map[string]int
}

// StatsProvider is implemented by the index store.
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// StatsProviderFunc adapts a plain function to StatsProvider.
type StatsProviderFunc func(ctx context.Context) (Stats, error)

// Stats calls f(ctx).
func (f StatsProviderFunc) Stats(ctx context.Context) (Stats, error) {
	return f(ctx)
}

// Collector periodically refreshes the index gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.Stats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	IndexFoldersTotal.Set(float64(stats.Folders))
	IndexRootFoldersTotal.Set(float64(stats.RootFolders))

	IndexImagesTotal.Reset()
	total := 0
	for format, count := range stats.ImagesByFormat {
		IndexImagesTotal.WithLabelValues(format).Set(float64(count))
		total += count
	}

	logging.Debug("Metrics collected: folders=%d, roots=%d, images=%d",
		stats.Folders, stats.RootFolders, total)
}
