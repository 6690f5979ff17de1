// Package remote defines the contract the pipeline consumes from the
// externally-owned object store. Provider implementations live in
// subpackages; the pipeline itself never sees an SDK type.
package remote

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates a remote object does not exist. Delete treats it as
// success (idempotent delete) and Exists maps it to false.
var ErrNotFound = errors.New("remote object not found")

// Object describes a successfully uploaded remote artifact.
type Object struct {
	RemoteID  string // Provider-scoped identifier (object key, blob path)
	Link      string // Stable URL or locator for the object
	SizeBytes int64
}

// ProgressFunc receives byte-level transfer progress. bytesTotal is the
// full object size; bytesSent is monotone non-decreasing per attempt.
type ProgressFunc func(bytesSent, bytesTotal int64)

// Source is a handle to local bytes being uploaded. Open may be called more
// than once across retries; each call returns an independent reader.
type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
	Size() int64
	ContentType() string
}

// Store is the narrow interface the pipeline requires from a provider.
type Store interface {
	// GetOrCreateFolder resolves the folder for the given path segments,
	// creating missing levels. Calling it twice for the same path must not
	// create duplicates.
	GetOrCreateFolder(ctx context.Context, pathSegments []string) (string, error)

	// Upload transfers src into folderID under displayName, reporting
	// progress through onProgress. The transfer must observe ctx
	// cancellation at the transport level.
	Upload(ctx context.Context, src Source, folderID, displayName string, onProgress ProgressFunc) (*Object, error)

	// Delete removes a remote object. Deleting an already-deleted ID is
	// not an error.
	Delete(ctx context.Context, remoteID string) error

	// Exists reports whether a remote object is still present. Used by
	// reconciliation checks after compensating deletes.
	Exists(ctx context.Context, remoteID string) (bool, error)
}
