package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/logging"
	"github.com/reelpipe/uplink/internal/remote"
)

func newTestCompensator(rem *fakeRemote, recs *fakeRecords) *Compensator {
	return NewCompensator(rem, recs, logging.New(io.Discard))
}

func uploadedTask(t *testing.T, rem *fakeRemote, name string) (*Task, *remote.Object) {
	t.Helper()
	task := newTask(newFakeSource(name, 256), category.PrimaryFootage)
	obj, err := rem.Upload(context.Background(), task.Source, "P-1/Footage/", name, nil)
	if err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	task.setRemoteResult(obj)
	return task, obj
}

func TestAfterRemoteSuccessPersistsRecord(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")

	rec, terr := comp.AfterRemoteSuccess(context.Background(), "P-1", task, obj)
	if terr != nil {
		t.Fatalf("unexpected error: %v", terr)
	}
	if rec.ID == "" || rec.RemoteID != obj.RemoteID {
		t.Errorf("bad record: %+v", rec)
	}
	if rec.ProjectID != "P-1" {
		t.Errorf("project id: got %q", rec.ProjectID)
	}
}

func TestAfterRemoteSuccessRollsBackOnRecordFailure(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")
	recs.createErr[task.DisplayName()] = errors.New("db down")

	_, terr := comp.AfterRemoteSuccess(context.Background(), "P-1", task, obj)
	if terr == nil || terr.Kind != KindRecordPersistenceFailed {
		t.Fatalf("expected clean rollback, got %v", terr)
	}
	if ok, _ := rem.Exists(context.Background(), obj.RemoteID); ok {
		t.Error("remote object should be deleted")
	}
	if task.RemoteResult() != nil {
		t.Error("transfer evidence should be cleared after verified delete")
	}
}

func TestAfterRemoteSuccessReportsOrphan(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")
	recs.createErr[task.DisplayName()] = errors.New("db down")
	rem.deleteErr[obj.RemoteID] = errors.New("remote unreachable")

	_, terr := comp.AfterRemoteSuccess(context.Background(), "P-1", task, obj)
	if terr == nil || terr.Kind != KindOrphanedRemoteArtifact {
		t.Fatalf("expected orphan, got %v", terr)
	}
	if terr.RemoteID != obj.RemoteID {
		t.Errorf("orphan must carry the remote id, got %q", terr.RemoteID)
	}
	if task.RemoteResult() == nil {
		t.Error("transfer evidence must survive a failed delete")
	}
}

func TestCompensatingDeleteSurvivesCancelledContext(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")
	recs.createErr[task.DisplayName()] = errors.New("db down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, terr := comp.AfterRemoteSuccess(ctx, "P-1", task, obj)
	if terr == nil {
		t.Fatal("expected an error")
	}
	// The delete ran on a detached context even though ctx was cancelled.
	if ok, _ := rem.Exists(context.Background(), obj.RemoteID); ok {
		t.Error("compensating delete must not be skipped on cancellation")
	}
}

func TestCleanupBeforeRetry(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")

	comp.CleanupBeforeRetry(context.Background(), task)
	if ok, _ := rem.Exists(context.Background(), obj.RemoteID); ok {
		t.Error("prior artifact should be deleted")
	}
	if task.RemoteResult() != nil {
		t.Error("evidence should be cleared after cleanup")
	}

	// With nothing to clean, it is a no-op.
	comp.CleanupBeforeRetry(context.Background(), task)
}

func TestCleanupBeforeRetryKeepsEvidenceOnFailure(t *testing.T) {
	rem := newFakeRemote()
	recs := newFakeRecords()
	comp := newTestCompensator(rem, recs)

	task, obj := uploadedTask(t, rem, "a.mov")
	rem.deleteErr[obj.RemoteID] = errors.New("remote unreachable")

	comp.CleanupBeforeRetry(context.Background(), task)
	if task.RemoteResult() == nil {
		t.Error("evidence must be kept when cleanup fails, for the next retry")
	}
}
