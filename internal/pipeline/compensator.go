package pipeline

import (
	"context"
	"fmt"

	"github.com/reelpipe/uplink/internal/logging"
	"github.com/reelpipe/uplink/internal/record"
	"github.com/reelpipe/uplink/internal/remote"
)

// Compensator runs the paired metadata write after a remote transfer and,
// when that write fails, the compensating delete of the now-orphaned remote
// object. The remote store and the record store share no transaction; this
// is the saga that keeps "uploaded but unknown" and "known but not
// uploaded" from going unnoticed.
type Compensator struct {
	remote  remote.Store
	records record.Store
	log     *logging.Logger
}

// NewCompensator wires a compensator over the two stores.
func NewCompensator(remoteStore remote.Store, records record.Store, log *logging.Logger) *Compensator {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Compensator{remote: remoteStore, records: records, log: log}
}

// AfterRemoteSuccess attempts the metadata write for a transferred object.
// Returns nil when the record is persisted. Otherwise it attempts to delete
// the remote object and returns either KindRecordPersistenceFailed (delete
// succeeded, remote store is clean) or KindOrphanedRemoteArtifact (delete
// failed, object needs operator reconciliation).
func (c *Compensator) AfterRemoteSuccess(ctx context.Context, projectID string, t *Task, obj *remote.Object) (*record.FileRecord, *TaskError) {
	rec, err := c.records.CreateFileRecord(ctx, &record.FileRecord{
		ProjectID:   projectID,
		Category:    string(t.Category()),
		DisplayName: t.DisplayName(),
		RemoteLink:  obj.Link,
		RemoteID:    obj.RemoteID,
		SizeBytes:   obj.SizeBytes,
		MimeType:    t.Source.ContentType(),
	})
	if err == nil {
		return rec, nil
	}

	c.log.Warn().
		Str("task", t.ID).
		Str("remote_id", obj.RemoteID).
		Err(err).
		Msg("metadata write failed, deleting remote object")

	// The compensating delete runs on a fresh context so a cancelled task
	// context cannot leave the orphan behind.
	if delErr := c.remote.Delete(context.WithoutCancel(ctx), obj.RemoteID); delErr != nil {
		c.log.Error().
			Str("task", t.ID).
			Str("remote_id", obj.RemoteID).
			Err(delErr).
			Msg("compensating delete failed, remote object is orphaned")
		return nil, &TaskError{
			Kind:     KindOrphanedRemoteArtifact,
			RemoteID: obj.RemoteID,
			Err:      fmt.Errorf("record write failed (%w), delete failed (%v)", err, delErr),
		}
	}

	t.clearRemoteResult()
	return nil, NewTaskError(KindRecordPersistenceFailed, err)
}

// CleanupBeforeRetry deletes the remote artifact left by a prior attempt,
// best effort. A retry proceeds regardless of the outcome: blocking retry
// on cleanup success could permanently strand a task. On success the
// task's transfer evidence is cleared so the attempt starts clean.
func (c *Compensator) CleanupBeforeRetry(ctx context.Context, t *Task) {
	obj := t.RemoteResult()
	if obj == nil {
		return
	}

	if err := c.remote.Delete(ctx, obj.RemoteID); err != nil {
		c.log.Warn().
			Str("task", t.ID).
			Str("remote_id", obj.RemoteID).
			Err(err).
			Msg("pre-retry cleanup failed, continuing with retry")
		return
	}

	c.log.Info().
		Str("task", t.ID).
		Str("remote_id", obj.RemoteID).
		Msg("pre-retry cleanup removed prior remote object")
	t.clearRemoteResult()
}
