// gib/database/files.go
package database

import (
	"database/sql"
	"fmt"

	"gib/models"
	"gib/utils"
)

// FileUpload is a validated, processed upload ready to persist. Content
// is the re-encoded original; Thumbnail is always a JPEG and may be nil
// when thumbnailing failed (the post still goes through).
type FileUpload struct {
	Name      string
	Extension string
	Mime      string
	Content   []byte
	Thumbnail []byte
}

// insertFile persists one file for a post inside the caller's transaction.
// With an object-store backend configured, the content goes there and only
// the key is recorded; otherwise the blob lives in the row.
func (ds *DatabaseService) insertFile(tx *sql.Tx, boardID string, postID int64, indexNum int, upload *FileUpload) (int64, error) {
	var content []byte
	var storageKey sql.NullString

	if ds.storage != nil {
		key := fmt.Sprintf("%s/%d_%d%s", boardID, postID, indexNum, upload.Extension)
		if err := ds.storage.SaveFile(key, upload.Content, upload.Mime); err != nil {
			return 0, fmt.Errorf("failed to store file content: %w", err)
		}
		storageKey = sql.NullString{String: key, Valid: true}
	} else {
		content = upload.Content
	}

	res, err := tx.Exec(`
		INSERT INTO files (creation_time, name, extension, mime, thumbnail, content, storage_key, index_num, board_id, post_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		utils.GetSQLTime(), upload.Name, upload.Extension, upload.Mime, upload.Thumbnail, content, storageKey, indexNum, boardID, postID)
	if err != nil {
		if storageKey.Valid {
			if derr := ds.storage.DeleteFile(storageKey.String); derr != nil {
				ds.logger.Error("Failed to remove orphaned object after insert failure", "key", storageKey.String, "error", derr)
			}
		}
		return 0, fmt.Errorf("failed to insert file record: %w", err)
	}
	return res.LastInsertId()
}

// GetFilesForPost returns a post's file metadata ordered by index_num.
func (ds *DatabaseService) GetFilesForPost(postID int64) ([]models.FileMeta, error) {
	rows, err := ds.DB.Query(`
		SELECT id, creation_time, name, extension, mime, index_num, board_id, post_id, thumbnail IS NOT NULL
		FROM files WHERE post_id = ? ORDER BY index_num ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("db error getting files for post %d: %w", postID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetFilesForPost", "error", err)
		}
	}()

	files := []models.FileMeta{}
	for rows.Next() {
		var f models.FileMeta
		if err := rows.Scan(&f.ID, &f.CreationTime, &f.Name, &f.Extension, &f.Mime, &f.IndexNum, &f.BoardID, &f.PostID, &f.HasThumbnail); err != nil {
			ds.logger.Error("Failed to scan file row", "post_id", postID, "error", err)
			continue
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetFile returns a file's content for serving, loading the blob from the
// object store when the row only carries a key.
func (ds *DatabaseService) GetFile(fileID int64) (*models.FileContent, error) {
	var fc models.FileContent
	var content []byte
	var storageKey sql.NullString
	err := ds.DB.QueryRow("SELECT mime, name, content, storage_key FROM files WHERE id = ?", fileID).
		Scan(&fc.Mime, &fc.Name, &content, &storageKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file %d: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting file %d: %w", fileID, err)
	}

	if content == nil && storageKey.Valid {
		if ds.storage == nil {
			return nil, fmt.Errorf("file %d has a storage key but no storage backend is configured", fileID)
		}
		content, err = ds.storage.LoadFile(storageKey.String)
		if err != nil {
			return nil, fmt.Errorf("failed to load file %d from storage: %w", fileID, err)
		}
	}
	fc.Content = content
	return &fc, nil
}

// GetFileThumbnail returns a file's thumbnail blob. Thumbnails always
// live in the row regardless of the content backend.
func (ds *DatabaseService) GetFileThumbnail(fileID int64) ([]byte, error) {
	var thumb []byte
	err := ds.DB.QueryRow("SELECT thumbnail FROM files WHERE id = ?", fileID).Scan(&thumb)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file %d: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting thumbnail %d: %w", fileID, err)
	}
	if thumb == nil {
		return nil, fmt.Errorf("thumbnail for file %d: %w", fileID, ErrNotFound)
	}
	return thumb, nil
}

// DeleteFile removes a file record by id. Posts are never cascaded; this
// is the only delete operation the application exposes.
func (ds *DatabaseService) DeleteFile(fileID int64) error {
	var storageKey sql.NullString
	err := ds.DB.QueryRow("SELECT storage_key FROM files WHERE id = ?", fileID).Scan(&storageKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("file %d: %w", fileID, ErrNotFound)
		}
		return fmt.Errorf("db error checking file %d: %w", fileID, err)
	}

	if _, err := ds.DB.Exec("DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}

	if storageKey.Valid && ds.storage != nil {
		if err := ds.storage.DeleteFile(storageKey.String); err != nil {
			ds.logger.Error("Failed to remove object for deleted file", "file_id", fileID, "key", storageKey.String, "error", err)
		}
	}
	return nil
}
