package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "soceyo/backend/pkg/errors"
)

// ============================================================================
// File Operations
// ============================================================================

// CreateFile stores file metadata. The caller chooses the id so it can match
// the key of the uploaded blob.
func (r *Repository) CreateFile(ctx context.Context, file File) (*File, error) {
	query := `
		CREATE (f:File {
			file_id: $fileID,
			url: $url,
			file_type: $fileType,
			size: $size,
			uploaded_by: $uploaderID,
			created_at: datetime($now)
		})
		RETURN f.file_id AS file_id, f.url AS url, f.file_type AS file_type,
		       f.size AS size, f.uploaded_by AS uploader_id, f.created_at AS created_at
	`

	records, err := r.write(ctx, "create file", query, map[string]interface{}{
		"fileID":     file.ID,
		"url":        file.URL,
		"fileType":   file.FileType,
		"size":       file.Size,
		"uploaderID": file.UploaderID,
		"now":        nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewGraphQueryFailed("create file", nil)
	}
	return fileFromRecord(records[0]), nil
}

// GetFile fetches file metadata by id
func (r *Repository) GetFile(ctx context.Context, fileID string) (*File, error) {
	query := `
		MATCH (f:File {file_id: $fileID})
		RETURN f.file_id AS file_id, f.url AS url, f.file_type AS file_type,
		       f.size AS size, f.uploaded_by AS uploader_id, f.created_at AS created_at
	`

	record, err := r.single(ctx, "get file", query, map[string]interface{}{"fileID": fileID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFound("file", fileID)
	}
	return fileFromRecord(record), nil
}

// DeleteFile removes file metadata uploaded by uploaderID and detaches it from any message
func (r *Repository) DeleteFile(ctx context.Context, fileID, uploaderID string) error {
	query := `
		MATCH (f:File {file_id: $fileID, uploaded_by: $uploaderID})
		DETACH DELETE f
		RETURN count(*) AS deleted
	`

	records, err := r.write(ctx, "delete file", query, map[string]interface{}{
		"fileID":     fileID,
		"uploaderID": uploaderID,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 || getCount(records[0], "deleted") == 0 {
		return apperrors.NewNotFound("file", fileID)
	}
	return nil
}

func fileFromRecord(record *neo4j.Record) *File {
	var size int64
	if val, ok := record.Get("size"); ok {
		if i, ok := val.(int64); ok {
			size = i
		}
	}
	return &File{
		ID:         getStringFromRecord(record, "file_id"),
		URL:        getStringFromRecord(record, "url"),
		FileType:   getStringFromRecord(record, "file_type"),
		Size:       size,
		UploaderID: getStringFromRecord(record, "uploader_id"),
		CreatedAt:  getTimeFromRecord(record, "created_at"),
	}
}
