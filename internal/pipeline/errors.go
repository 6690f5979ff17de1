// Package pipeline implements the resilient upload pipeline: per-file task
// state machine, batch queue, and the compensating cleanup that keeps the
// remote store and the system of record consistent under partial failure.
package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a task failure. Callers branch on kinds, never on message
// text: in particular, an orphaned remote artifact must be distinguishable
// from a clean rollback so an operator can be alerted instead of silently
// retrying.
type Kind string

const (
	// KindAuthRequired means no valid session exists. Recoverable by
	// signing in; tasks stay pending rather than failing permanently.
	KindAuthRequired Kind = "auth_required"

	// KindRecordStoreUnavailable means the system of record could not be
	// queried before the batch started. Nothing was transferred; tasks
	// stay pending.
	KindRecordStoreUnavailable Kind = "record_store_unavailable"

	// KindFolderResolutionFailed means the destination folder could not be
	// resolved or created. Retry re-attempts resolution.
	KindFolderResolutionFailed Kind = "folder_resolution_failed"

	// KindRemoteTransferFailed means the transfer itself failed and no
	// remote artifact exists. Retry starts from scratch.
	KindRemoteTransferFailed Kind = "remote_transfer_failed"

	// KindRecordPersistenceFailed means the metadata write failed and the
	// compensating delete succeeded. The remote store is clean; retry is
	// equivalent to a fresh attempt.
	KindRecordPersistenceFailed Kind = "record_persistence_failed"

	// KindOrphanedRemoteArtifact means the metadata write failed AND the
	// compensating delete failed: a remote object exists that the system
	// of record knows nothing about. Requires operator attention; retry
	// first re-attempts the delete.
	KindOrphanedRemoteArtifact Kind = "orphaned_remote_artifact"

	// KindCancelled is user-initiated and not a failure; the task returns
	// to pending with zero progress.
	KindCancelled Kind = "cancelled"
)

// TaskError is the only error type that escapes the task boundary. Raw
// collaborator errors are always wrapped into one of the kinds above.
type TaskError struct {
	Kind     Kind
	RemoteID string // Set for orphaned artifacts: the object needing reconciliation
	Err      error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	switch e.Kind {
	case KindOrphanedRemoteArtifact:
		return fmt.Sprintf("%s: remote object %s exists without a metadata record and could not be deleted, manual reconciliation required: %v",
			e.Kind, e.RemoteID, e.Err)
	case KindRecordPersistenceFailed:
		return fmt.Sprintf("%s: metadata write failed, remote upload rolled back cleanly: %v", e.Kind, e.Err)
	default:
		if e.Err == nil {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

// Unwrap returns the wrapped cause.
func (e *TaskError) Unwrap() error { return e.Err }

// Is allows errors.Is comparisons against a bare kind sentinel.
func (e *TaskError) Is(target error) bool {
	var te *TaskError
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

// NewTaskError wraps err with a kind.
func NewTaskError(kind Kind, err error) *TaskError {
	return &TaskError{Kind: kind, Err: err}
}

// KindOf extracts the kind from an error, or "" when err is not a
// TaskError.
func KindOf(err error) Kind {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// IsOrphan reports whether err flags an orphaned remote artifact.
func IsOrphan(err error) bool {
	return KindOf(err) == KindOrphanedRemoteArtifact
}
