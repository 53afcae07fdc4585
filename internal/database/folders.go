package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const folderColumns = `id, path, name, parent_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*Folder, error) {
	var f Folder
	var parentID sql.NullString
	if err := row.Scan(&f.ID, &f.Path, &f.Name, &parentID); err != nil {
		return nil, err
	}
	f.ParentID = parentID.String
	return &f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowsQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type rowsQueryer interface {
	queryer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getFolder(ctx context.Context, q queryer, id string) (*Folder, error) {
	f, err := scanFolder(q.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return f, err
}

func getFolderByPath(ctx context.Context, q queryer, path string) (*Folder, error) {
	f, err := scanFolder(q.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", path, ErrNotFound)
	}
	return f, err
}

// UpsertFolder creates the folder at path or updates its parent. parentID
// is empty for a root folder; otherwise it must name an existing folder
// that is not the folder itself or one of its descendants.
func (d *Database) UpsertFolder(ctx context.Context, path, parentID string) (*Folder, UpsertResult, error) {
	if !filepath.IsAbs(path) || filepath.Clean(path) != path {
		return nil, UpsertUnchanged, fmt.Errorf("%w: folder path %q is not absolute and clean", ErrIntegrityViolation, path)
	}

	var (
		folder *Folder
		result UpsertResult
	)
	err := d.withWriteTx(ctx, "upsert_folder", func(tx *sql.Tx) error {
		existing, err := getFolderByPath(ctx, tx, path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if parentID != "" {
			if _, err := getFolder(ctx, tx, parentID); errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: parent folder %s does not exist", ErrIntegrityViolation, parentID)
			} else if err != nil {
				return err
			}
			if existing != nil {
				if err := checkNoCycle(ctx, tx, existing.ID, parentID); err != nil {
					return err
				}
			}
		}

		now := d.now().UnixNano()
		if existing == nil {
			folder = &Folder{ID: d.newID(), Path: path, ParentID: parentID, Name: folderName(path)}
			result = UpsertInserted
			_, err = tx.ExecContext(ctx, `
				INSERT INTO folders (id, path, name, parent_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				folder.ID, folder.Path, folder.Name, nullString(parentID), now, now)
			return err
		}

		folder = existing
		if existing.ParentID == parentID {
			result = UpsertUnchanged
			return nil
		}
		folder.ParentID = parentID
		result = UpsertUpdated
		_, err = tx.ExecContext(ctx,
			`UPDATE folders SET parent_id = ?, updated_at = ? WHERE id = ?`,
			nullString(parentID), now, existing.ID)
		return err
	})
	if err != nil {
		return nil, UpsertUnchanged, err
	}
	return folder, result, nil
}

// checkNoCycle fails if making parentID the parent of id would close a loop,
// i.e. if id is parentID itself or one of its ancestors.
func checkNoCycle(ctx context.Context, tx *sql.Tx, id, parentID string) error {
	var hits int
	err := tx.QueryRowContext(ctx, `
		WITH RECURSIVE chain(id, parent_id) AS (
			SELECT id, parent_id FROM folders WHERE id = ?
			UNION
			SELECT f.id, f.parent_id FROM folders f JOIN chain c ON f.id = c.parent_id
		)
		SELECT COUNT(*) FROM chain WHERE id = ?`, parentID, id).Scan(&hits)
	if err != nil {
		return err
	}
	if hits > 0 {
		return fmt.Errorf("%w: folder %s cannot be its own ancestor", ErrIntegrityViolation, id)
	}
	return nil
}

// DeleteFolder removes a folder that has no subfolders and no images.
func (d *Database) DeleteFolder(ctx context.Context, id string) error {
	return d.withWriteTx(ctx, "delete_folder", func(tx *sql.Tx) error {
		if _, err := getFolder(ctx, tx, id); err != nil {
			return err
		}

		var children int
		err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM folders WHERE parent_id = ?)
			     + (SELECT COUNT(*) FROM images WHERE folder_id = ?)`,
			id, id).Scan(&children)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("folder %s: %w", id, ErrHasChildren)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
		return err
	})
}

// GetFolder returns the folder with the given id.
func (d *Database) GetFolder(ctx context.Context, id string) (f *Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("get_folder", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()
	return getFolder(ctx, d.db, id)
}

// GetFolderByPath returns the folder stored at path.
func (d *Database) GetFolderByPath(ctx context.Context, path string) (f *Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("get_folder_by_path", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()
	return getFolderByPath(ctx, d.db, path)
}

// GetRootFolders returns every folder without a parent, ordered by name
// (Unicode case-insensitive) and then path.
func (d *Database) GetRootFolders(ctx context.Context) (folders []Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("get_root_folders", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	return queryFolders(ctx, d.db, `
		SELECT `+folderColumns+` FROM folders
		WHERE parent_id IS NULL
		ORDER BY name COLLATE FOLDCASE, path`)
}

// GetChildFolders returns the direct subfolders of a folder in the same
// order as GetRootFolders.
func (d *Database) GetChildFolders(ctx context.Context, id string) (folders []Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("get_child_folders", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	err = d.withReadSnapshot(ctx, func(q rowsQueryer) error {
		if _, err := getFolder(ctx, q, id); err != nil {
			return err
		}
		folders, err = queryFolders(ctx, q, `
			SELECT `+folderColumns+` FROM folders
			WHERE parent_id = ?
			ORDER BY name COLLATE FOLDCASE, path`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListFolderSubtree returns root and every folder below it, ordered by path
// so parents precede their descendants.
func (d *Database) ListFolderSubtree(ctx context.Context, root string) (folders []Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("list_folder_subtree", start, err) }()

	ctx, cancel := readCtx(ctx)
	defer cancel()

	lo, hi := subtreeBounds(root)
	return queryFolders(ctx, d.db, `
		SELECT `+folderColumns+` FROM folders
		WHERE path = ? OR (path >= ? AND path < ?)
		ORDER BY path`, root, lo, hi)
}

func queryFolders(ctx context.Context, q rowsQueryer, query string, args ...any) ([]Folder, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

func folderName(path string) string {
	name := filepath.Base(path)
	if name == string(filepath.Separator) {
		return path
	}
	return name
}
