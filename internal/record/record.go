// Package record defines the system of record for uploaded files: the
// authoritative metadata store that decides what the application considers
// "uploaded". Implementations live in subpackages.
package record

import (
	"context"
	"time"
)

// FileRecord links a successfully uploaded remote object to a project.
type FileRecord struct {
	ID          string
	ProjectID   string
	Category    string
	DisplayName string
	RemoteLink  string
	RemoteID    string
	SizeBytes   int64
	MimeType    string
	Deleted     bool
	CreatedAt   time.Time
}

// Store is the narrow interface the pipeline requires from the system of
// record.
type Store interface {
	// CreateFileRecord persists metadata for an uploaded file. Called only
	// after the remote transfer succeeded.
	CreateFileRecord(ctx context.Context, rec *FileRecord) (*FileRecord, error)

	// SoftDeleteFileRecord marks a record deleted without removing the row.
	SoftDeleteFileRecord(ctx context.Context, id string) error

	// CountActiveByProject returns the number of non-deleted records for a
	// project. Feeds sequence-numbered naming.
	CountActiveByProject(ctx context.Context, projectID string) (int, error)
}
