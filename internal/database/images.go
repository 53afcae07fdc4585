package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"aigen-index/internal/media"
	"aigen-index/internal/mediatypes"
)

const imageColumns = `id, path, folder_id, name, format, mime_type, width, height,
	file_size, checksum, captured_at, generation, mod_time, last_scanned_at`

func scanImage(row rowScanner) (*Image, error) {
	var (
		img        Image
		format     string
		capturedAt sql.NullInt64
		generation sql.NullString
		modTime    int64
		scannedAt  int64
	)
	err := row.Scan(&img.ID, &img.Path, &img.FolderID, &img.Name, &format, &img.Metadata.MimeType,
		&img.Metadata.Width, &img.Metadata.Height, &img.Metadata.FileSize, &img.Metadata.Checksum,
		&capturedAt, &generation, &modTime, &scannedAt)
	if err != nil {
		return nil, err
	}

	img.Metadata.Format = mediatypes.Format(format)
	if capturedAt.Valid {
		img.Metadata.CapturedAt = time.Unix(capturedAt.Int64, 0).UTC()
	}
	if generation.Valid && generation.String != "" {
		var gen media.Generation
		if err := json.Unmarshal([]byte(generation.String), &gen); err != nil {
			return nil, fmt.Errorf("image %s: decode generation: %w", img.ID, err)
		}
		img.Metadata.Generation = &gen
	}
	img.ModTime = time.Unix(0, modTime)
	img.LastScannedAt = time.Unix(0, scannedAt)
	return &img, nil
}

func getImageByPath(ctx context.Context, q queryer, path string) (*Image, error) {
	img, err := scanImage(q.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", path, ErrNotFound)
	}
	return img, err
}

// UpsertImage inserts a new image or refreshes an existing one. When the
// checksum is unchanged only the scan bookkeeping is refreshed and the
// result is UpsertTouched; otherwise the metadata is replaced and the
// result is UpsertUpdated.
func (d *Database) UpsertImage(ctx context.Context, in ImageUpsert) (*Image, UpsertResult, error) {
	if in.Metadata == nil {
		return nil, UpsertUnchanged, errors.New("upsert image: metadata is required")
	}
	if !filepath.IsAbs(in.Path) {
		return nil, UpsertUnchanged, fmt.Errorf("%w: image path %q is not absolute", ErrIntegrityViolation, in.Path)
	}

	var generation sql.NullString
	if in.Metadata.Generation != nil {
		b, err := json.Marshal(in.Metadata.Generation)
		if err != nil {
			return nil, UpsertUnchanged, fmt.Errorf("encode generation: %w", err)
		}
		generation = sql.NullString{String: string(b), Valid: true}
	}
	var capturedAt sql.NullInt64
	if !in.Metadata.CapturedAt.IsZero() {
		capturedAt = sql.NullInt64{Int64: in.Metadata.CapturedAt.Unix(), Valid: true}
	}

	var (
		image  *Image
		result UpsertResult
	)
	err := d.withWriteTx(ctx, "upsert_image", func(tx *sql.Tx) error {
		if _, err := getFolder(ctx, tx, in.FolderID); errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: folder %s does not exist", ErrIntegrityViolation, in.FolderID)
		} else if err != nil {
			return err
		}

		existing, err := getImageByPath(ctx, tx, in.Path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		now := d.now()
		image = &Image{
			Path:          in.Path,
			FolderID:      in.FolderID,
			Name:          filepath.Base(in.Path),
			Metadata:      *in.Metadata,
			ModTime:       in.ModTime,
			LastScannedAt: now,
		}

		if existing == nil {
			image.ID = d.newID()
			result = UpsertInserted
			_, err = tx.ExecContext(ctx, `
				INSERT INTO images (`+imageColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				image.ID, image.Path, image.FolderID, image.Name,
				string(in.Metadata.Format), in.Metadata.MimeType, in.Metadata.Width, in.Metadata.Height,
				in.Metadata.FileSize, in.Metadata.Checksum, capturedAt, generation,
				in.ModTime.UnixNano(), now.UnixNano())
			return err
		}

		image.ID = existing.ID
		if existing.Metadata.Checksum == in.Metadata.Checksum {
			// Same bytes: the stored metadata stays as it is.
			result = UpsertTouched
			image.Metadata = existing.Metadata
			_, err = tx.ExecContext(ctx, `
				UPDATE images SET folder_id = ?, name = ?, mod_time = ?, last_scanned_at = ?
				WHERE id = ?`,
				image.FolderID, image.Name, in.ModTime.UnixNano(), now.UnixNano(), image.ID)
			return err
		}

		result = UpsertUpdated
		_, err = tx.ExecContext(ctx, `
			UPDATE images SET
				folder_id = ?, name = ?, format = ?, mime_type = ?, width = ?, height = ?,
				file_size = ?, checksum = ?, captured_at = ?, generation = ?,
				mod_time = ?, last_scanned_at = ?
			WHERE id = ?`,
			image.FolderID, image.Name,
			string(in.Metadata.Format), in.Metadata.MimeType, in.Metadata.Width, in.Metadata.Height,
			in.Metadata.FileSize, in.Metadata.Checksum, capturedAt, generation,
			in.ModTime.UnixNano(), now.UnixNano(), image.ID)
		return err
	})
	if err != nil {
		return nil, UpsertUnchanged, err
	}
	return image, result, nil
}

// DeleteImage removes an image record.
func (d *Database) DeleteImage(ctx context.Context, id string) error {
	return d.withWriteTx(ctx, "delete_image", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("image %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// GetImage returns the image with the given id.
func (d *Database) GetImage(ctx context.Context, id string) (img *Image, err error) {
	start := time.Now()
	defer func() { recordQuery("get_image", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	img, err = scanImage(d.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return img, err
}

// GetAllImages returns every image, most recently scanned first, ties
// broken by path.
func (d *Database) GetAllImages(ctx context.Context) (images []Image, err error) {
	start := time.Now()
	defer func() { recordQuery("get_all_images", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	return queryImages(ctx, d.db, `
		SELECT `+imageColumns+` FROM images
		ORDER BY last_scanned_at DESC, path`)
}

// GetImagesByFolderID returns the images directly inside a folder, ordered
// by path.
func (d *Database) GetImagesByFolderID(ctx context.Context, folderID string) (images []Image, err error) {
	start := time.Now()
	defer func() { recordQuery("get_images_by_folder", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	err = d.withReadSnapshot(ctx, func(q rowsQueryer) error {
		if _, err := getFolder(ctx, q, folderID); err != nil {
			return err
		}
		images, err = queryImages(ctx, q, `
			SELECT `+imageColumns+` FROM images
			WHERE folder_id = ?
			ORDER BY path`, folderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ListImageSubtree returns every image below root, ordered by path.
func (d *Database) ListImageSubtree(ctx context.Context, root string) (images []Image, err error) {
	start := time.Now()
	defer func() { recordQuery("list_image_subtree", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	lo, hi := subtreeBounds(root)
	return queryImages(ctx, d.db, `
		SELECT `+imageColumns+` FROM images
		WHERE path >= ? AND path < ?
		ORDER BY path`, lo, hi)
}

func queryImages(ctx context.Context, q rowsQueryer, query string, args ...any) ([]Image, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}
