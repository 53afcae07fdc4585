package database

import (
	"context"
	"time"

	"aigen-index/internal/metrics"
)

// Stats counts the folders and images in the index.
func (d *Database) Stats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(parent_id IS NULL), 0) FROM folders`,
	).Scan(&stats.Folders, &stats.RootFolders)
	if err != nil {
		return Stats{}, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT format, COUNT(*), COALESCE(SUM(file_size), 0) FROM images GROUP BY format`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats.ImagesByFormat = make(map[string]int)
	for rows.Next() {
		var (
			format string
			count  int
			bytes  int64
		)
		if err := rows.Scan(&format, &count, &bytes); err != nil {
			return Stats{}, err
		}
		stats.ImagesByFormat[format] = count
		stats.Images += count
		stats.TotalBytes += bytes
	}
	return stats, rows.Err()
}

// MetricsStats adapts Stats for the metrics collector.
func (d *Database) MetricsStats(ctx context.Context) (metrics.Stats, error) {
	stats, err := d.Stats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}
	return metrics.Stats{
		Folders:        stats.Folders,
		RootFolders:    stats.RootFolders,
		ImagesByFormat: stats.ImagesByFormat,
	}, nil
}
