package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/remote"
)

// Status represents the current state of an upload task.
type Status string

const (
	StatusPending   Status = "pending"   // Waiting for a StartAll pass
	StatusUploading Status = "uploading" // Transfer or metadata write in flight
	StatusComplete  Status = "complete"  // Remote object uploaded AND record persisted
	StatusError     Status = "error"     // Failed with a classified TaskError
)

// Task is the unit of work for one file. It owns its lifecycle state, byte
// progress, and an abort handle. Thread-safe: use the provided methods.
//
// The remoteResult field is set when the remote transfer has succeeded at
// least once and is deliberately NOT cleared when a downstream step fails:
// it is the evidence the compensation step needs. It is cleared only when a
// compensating or pre-retry delete actually removes the object.
type Task struct {
	ID     string
	Source remote.Source

	mu           sync.RWMutex
	category     category.Category
	status       Status
	percent      float64 // 0 to 100, monotone non-decreasing while uploading
	displayName  string
	sequence     int
	remoteResult *remote.Object
	taskErr      *TaskError
	cancel       context.CancelFunc

	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// newTask creates a pending task for one source file.
func newTask(src remote.Source, cat category.Category) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Source:    src,
		category:  cat,
		status:    StatusPending,
		createdAt: time.Now(),
	}
}

// Category returns the task's file category.
func (t *Task) Category() category.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.category
}

// setCategory changes the category while the task is still Pending. The
// check and the write share one critical section so a racing batch start
// cannot observe a half-applied change. Returns false once a transfer has
// started: the destination folder and name are committed.
func (t *Task) setCategory(cat category.Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.category = cat
	return true
}

// Status returns the current state.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Progress returns the current percentage, 0 to 100.
func (t *Task) Progress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.percent
}

// DisplayName returns the assigned sequence-numbered name, or the original
// file name when naming does not apply or has not run yet.
func (t *Task) DisplayName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.displayName != "" {
		return t.displayName
	}
	return t.Source.Name()
}

// Sequence returns the assigned sequence number, 0 when unnamed.
func (t *Task) Sequence() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sequence
}

// RemoteResult returns the remote artifact from the most recent successful
// transfer, if any.
func (t *Task) RemoteResult() *remote.Object {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remoteResult
}

// Err returns the classified error when the task is in StatusError.
func (t *Task) Err() *TaskError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.taskErr
}

// ErrorKind returns the failure kind, or "" when not failed.
func (t *Task) ErrorKind() Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.taskErr == nil {
		return ""
	}
	return t.taskErr.Kind
}

// beginUpload transitions Pending or Error (retry) to Uploading and stores
// the abort handle. Returns false when the task is not startable.
func (t *Task) beginUpload(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending && t.status != StatusError {
		return false
	}
	t.status = StatusUploading
	t.percent = 0
	t.taskErr = nil
	t.cancel = cancel
	t.startedAt = time.Now()
	return true
}

// setProgress updates the percentage. Regressions are ignored so progress
// stays monotone within one attempt.
func (t *Task) setProgress(percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusUploading {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent > t.percent {
		t.percent = percent
	}
}

// assignName records the sequence-numbered display name for this attempt.
func (t *Task) assignName(name string, sequence int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.displayName = name
	t.sequence = sequence
}

// setRemoteResult records a successful remote transfer.
func (t *Task) setRemoteResult(obj *remote.Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remoteResult = obj
}

// clearRemoteResult removes the transfer evidence after the remote object
// has verifiably been deleted.
func (t *Task) clearRemoteResult() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remoteResult = nil
}

// complete transitions Uploading to Complete.
func (t *Task) complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusComplete
	t.percent = 100
	t.cancel = nil
	t.completedAt = time.Now()
}

// fail transitions Uploading to Error with a classified cause.
func (t *Task) fail(err *TaskError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusError
	t.taskErr = err
	t.cancel = nil
	t.completedAt = time.Now()
}

// resetToPending returns a cancelled task to Pending with zero progress.
func (t *Task) resetToPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusPending
	t.percent = 0
	t.taskErr = nil
	t.cancel = nil
	t.startedAt = time.Time{}
}

// Abort invokes the stored cancel function if the task is uploading. The
// in-flight transfer observes it at the transport level; the runner then
// resets the task to Pending.
func (t *Task) Abort() bool {
	t.mu.Lock()
	cancel := t.cancel
	uploading := t.status == StatusUploading
	t.mu.Unlock()

	if uploading && cancel != nil {
		cancel()
		return true
	}
	return false
}

// View is an immutable snapshot of a task for display.
type View struct {
	ID          string
	FileName    string
	DisplayName string
	Category    category.Category
	Status      Status
	Percent     float64
	SizeBytes   int64
	Sequence    int
	RemoteID    string
	ErrorKind   Kind
	ErrMessage  string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Snapshot returns a consistent copy of the task state.
func (t *Task) Snapshot() View {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v := View{
		ID:          t.ID,
		FileName:    t.Source.Name(),
		DisplayName: t.displayName,
		Category:    t.category,
		Status:      t.status,
		Percent:     t.percent,
		SizeBytes:   t.Source.Size(),
		Sequence:    t.sequence,
		CreatedAt:   t.createdAt,
		StartedAt:   t.startedAt,
		CompletedAt: t.completedAt,
	}
	if v.DisplayName == "" {
		v.DisplayName = t.Source.Name()
	}
	if t.remoteResult != nil {
		v.RemoteID = t.remoteResult.RemoteID
	}
	if t.taskErr != nil {
		v.ErrorKind = t.taskErr.Kind
		v.ErrMessage = t.taskErr.Error()
	}
	return v
}

// IsFinished reports whether the task reached Complete or Error.
func (t *Task) IsFinished() bool {
	s := t.Status()
	return s == StatusComplete || s == StatusError
}
