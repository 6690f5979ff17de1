package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reelpipe/uplink/internal/auth"
	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/events"
	"github.com/reelpipe/uplink/internal/folder"
	"github.com/reelpipe/uplink/internal/logging"
	"github.com/reelpipe/uplink/internal/naming"
	"github.com/reelpipe/uplink/internal/record"
	"github.com/reelpipe/uplink/internal/remote"
)

// Deps are the collaborators one queue needs. All of them are narrow
// interfaces except the resolver, which is shared state by design: every
// queue handed the same resolver shares its folder cache.
type Deps struct {
	Auth     auth.Authenticator
	Remote   remote.Store
	Records  record.Store
	Resolver *folder.Resolver
	Bus      *events.EventBus
	Logger   *logging.Logger
}

// Stats holds derived task counts. They are recomputed from task statuses
// on demand and can never drift from the tasks themselves.
type Stats struct {
	Pending   int
	Uploading int
	Complete  int
	Error     int
}

// Total returns the total number of tasks.
func (s Stats) Total() int {
	return s.Pending + s.Uploading + s.Complete + s.Error
}

// OrphanWarning identifies a remote artifact needing operator attention.
type OrphanWarning struct {
	TaskID   string
	FileName string
	RemoteID string
}

// Summary reports the outcome of one StartAll or RetryFailed pass.
type Summary struct {
	Completed int
	Failed    int
	Orphans   []OrphanWarning
	Duration  time.Duration
}

// Queue is an ordered batch of upload tasks for one project. It drives
// bounded-parallel execution, exposes aggregate counts, and supports
// retrying failures and clearing finished tasks. A queue belongs to a
// single client session; there is no cross-process coordination.
type Queue struct {
	projectID     string
	deps          Deps
	comp          *Compensator
	maxConcurrent int
	log           *logging.Logger

	mu        sync.RWMutex
	tasks     []*Task
	tasksByID map[string]*Task

	// Sequence naming state, guarded by nameMu. reservedSeqs holds the
	// numbers handed to in-flight tasks; highestCommitted is the highest
	// number a persisted record holds and is never lowered, so neither a
	// sibling in the same batch nor a later batch can mint a number that is
	// already taken.
	nameMu           sync.Mutex
	reservedSeqs     map[int]struct{}
	highestCommitted int

	running atomic.Bool
}

// NewQueue creates a queue for one batch of uploads to a project.
// maxConcurrent <= 1 means strictly sequential processing in enqueue order.
func NewQueue(projectID string, deps Deps, maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	log := deps.Logger
	if log == nil {
		log = logging.NewDefault()
	}
	return &Queue{
		projectID:     projectID,
		deps:          deps,
		comp:          NewCompensator(deps.Remote, deps.Records, log),
		maxConcurrent: maxConcurrent,
		log:           log,
		tasksByID:     make(map[string]*Task),
		reservedSeqs:  make(map[int]struct{}),
	}
}

// ProjectID returns the project this queue uploads into.
func (q *Queue) ProjectID() string { return q.projectID }

// Enqueue adds one task per source with the given default category and
// returns the new task IDs. Insertion order is upload order.
func (q *Queue) Enqueue(sources []remote.Source, defaultCategory category.Category) []string {
	ids := make([]string, 0, len(sources))

	q.mu.Lock()
	for _, src := range sources {
		t := newTask(src, defaultCategory)
		q.tasks = append(q.tasks, t)
		q.tasksByID[t.ID] = t
		ids = append(ids, t.ID)
	}
	q.mu.Unlock()

	for _, id := range ids {
		if t, ok := q.task(id); ok {
			q.publishTaskEvent(events.EventTaskQueued, t)
		}
	}
	return ids
}

// SetCategory changes a task's category. Allowed only while Pending: once
// a transfer starts the destination folder and name are committed.
func (q *Queue) SetCategory(taskID string, cat category.Category) error {
	t, ok := q.task(taskID)
	if !ok {
		return errors.New("task not found")
	}
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}
	if !t.setCategory(cat) {
		return errors.New("task is not pending")
	}
	return nil
}

// Remove drops a task from the queue. Allowed only while Pending.
func (q *Queue) Remove(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasksByID[taskID]
	if !ok {
		return errors.New("task not found")
	}
	if t.Status() != StatusPending {
		return errors.New("task is not pending")
	}

	delete(q.tasksByID, taskID)
	for i, cur := range q.tasks {
		if cur.ID == taskID {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// StartAll processes every Pending task exactly once, in enqueue order,
// with bounded parallelism. Per-task failures never halt the batch. The
// returned Summary aggregates the pass; the error is non-nil only when the
// batch could not start at all (auth, record store unavailable).
func (q *Queue) StartAll(ctx context.Context) (Summary, error) {
	return q.runBatch(ctx, StatusPending)
}

// RetryFailed re-attempts every Error task. Tasks that left an orphaned
// remote artifact get a best-effort delete before re-uploading so repeated
// retries do not accumulate orphans.
func (q *Queue) RetryFailed(ctx context.Context) (Summary, error) {
	return q.runBatch(ctx, StatusError)
}

// Retry re-attempts a single failed task.
func (q *Queue) Retry(ctx context.Context, taskID string) (Summary, error) {
	t, ok := q.task(taskID)
	if !ok {
		return Summary{}, errors.New("task not found")
	}
	if t.Status() != StatusError {
		return Summary{}, errors.New("task is not in error state")
	}
	if !q.running.CompareAndSwap(false, true) {
		return Summary{}, errors.New("queue is already processing a batch")
	}
	defer q.running.Store(false)
	if err := q.prepareBatch(ctx); err != nil {
		return Summary{}, err
	}
	return q.executeBatch(ctx, []*Task{t}), nil
}

func (q *Queue) runBatch(ctx context.Context, want Status) (Summary, error) {
	if !q.running.CompareAndSwap(false, true) {
		return Summary{}, errors.New("queue is already processing a batch")
	}
	defer q.running.Store(false)

	if err := q.prepareBatch(ctx); err != nil {
		return Summary{}, err
	}

	q.mu.RLock()
	batch := make([]*Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if t.Status() == want {
			batch = append(batch, t)
		}
	}
	q.mu.RUnlock()

	return q.executeBatch(ctx, batch), nil
}

// prepareBatch verifies authentication and refreshes the persisted record
// count that seeds sequence numbering. Tasks are left untouched on
// failure: an auth problem pauses the batch, it does not fail tasks.
func (q *Queue) prepareBatch(ctx context.Context) error {
	if q.deps.Auth != nil && !q.deps.Auth.IsSignedIn(ctx) {
		if err := q.deps.Auth.SignIn(ctx); err != nil {
			q.log.Warn().Err(err).Msg("sign-in failed, batch paused")
			return NewTaskError(KindAuthRequired, err)
		}
	}

	q.nameMu.Lock()
	defer q.nameMu.Unlock()
	q.reservedSeqs = make(map[int]struct{})

	if naming.Applies(q.projectID) {
		n, err := q.deps.Records.CountActiveByProject(ctx, q.projectID)
		if err != nil {
			return NewTaskError(KindRecordStoreUnavailable,
				fmt.Errorf("count persisted records for %s: %w", q.projectID, err))
		}
		if n > q.highestCommitted {
			q.highestCommitted = n
		}
	}
	return nil
}

// reserveName hands out the next free sequence number. While any
// reservation is outstanding the next number goes above all of them; a
// released slot is reused only once no higher reservation exists.
func (q *Queue) reserveName(cat category.Category, sourceName string) naming.Name {
	q.nameMu.Lock()
	defer q.nameMu.Unlock()

	last := q.highestCommitted
	for seq := range q.reservedSeqs {
		if seq > last {
			last = seq
		}
	}
	n := naming.Next(q.projectID, cat, sourceName, last)
	q.reservedSeqs[n.Sequence] = struct{}{}
	return n
}

// commitName marks a sequence number as permanently taken by a persisted
// record.
func (q *Queue) commitName(seq int) {
	if seq == 0 {
		return
	}
	q.nameMu.Lock()
	defer q.nameMu.Unlock()
	delete(q.reservedSeqs, seq)
	if seq > q.highestCommitted {
		q.highestCommitted = seq
	}
}

// releaseName drops the reservation of an attempt that produced no record.
func (q *Queue) releaseName(seq int) {
	if seq == 0 {
		return
	}
	q.nameMu.Lock()
	delete(q.reservedSeqs, seq)
	q.nameMu.Unlock()
}

// executeBatch runs the given tasks. The semaphore is acquired in loop
// order before each goroutine launches, so maxConcurrent=1 degenerates to
// strict enqueue-order sequential processing.
func (q *Queue) executeBatch(ctx context.Context, batch []*Task) Summary {
	start := time.Now()
	sem := make(chan struct{}, q.maxConcurrent)

	var (
		wg      sync.WaitGroup
		sumMu   sync.Mutex
		summary Summary
	)

	for _, t := range batch {
		sem <- struct{}{}
		wg.Add(1)
		go func(t *Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					q.log.Error().Str("task", t.ID).Msgf("panic in upload: %v", r)
					t.fail(NewTaskError(KindRemoteTransferFailed, fmt.Errorf("panic: %v", r)))
				}
			}()

			q.executeTask(ctx, t)

			sumMu.Lock()
			switch t.Status() {
			case StatusComplete:
				summary.Completed++
			case StatusError:
				summary.Failed++
				if te := t.Err(); te != nil && te.Kind == KindOrphanedRemoteArtifact {
					summary.Orphans = append(summary.Orphans, OrphanWarning{
						TaskID:   t.ID,
						FileName: t.Source.Name(),
						RemoteID: te.RemoteID,
					})
				}
			}
			sumMu.Unlock()
		}(t)
	}
	wg.Wait()

	summary.Duration = time.Since(start)
	if q.deps.Bus != nil {
		q.deps.Bus.Publish(&events.BatchEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventBatchFinished, Time: time.Now()},
			Completed: summary.Completed,
			Failed:    summary.Failed,
			Orphans:   len(summary.Orphans),
			Duration:  summary.Duration,
		})
	}
	return summary
}

// executeTask runs one task through resolution, naming, transfer and the
// compensated metadata write. Every failure is classified before it lands
// on the task; raw collaborator errors never escape.
func (q *Queue) executeTask(ctx context.Context, t *Task) {
	// A prior attempt may have left a remote artifact (orphan or metadata
	// failure mid-flight). Best-effort cleanup first so retries do not
	// stack orphans for the same task.
	if t.RemoteResult() != nil {
		q.comp.CleanupBeforeRetry(ctx, t)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !t.beginUpload(cancel) {
		return
	}
	q.publishTaskEvent(events.EventTaskStarted, t)

	// Uploading tasks refuse SetCategory, so one read is stable for the
	// rest of the attempt.
	cat := t.Category()

	folderID, err := q.deps.Resolver.Resolve(taskCtx, q.projectID, cat.Group())
	if err != nil {
		if q.finishCancelled(taskCtx, t, 0) {
			return
		}
		q.failTask(t, NewTaskError(KindFolderResolutionFailed, err))
		return
	}

	seq := 0
	if naming.Applies(q.projectID) {
		n := q.reserveName(cat, t.Source.Name())
		t.assignName(n.DisplayName, n.Sequence)
		seq = n.Sequence
	}

	obj, err := q.deps.Remote.Upload(taskCtx, t.Source, folderID, t.DisplayName(), func(sent, total int64) {
		if total > 0 {
			t.setProgress(float64(sent) / float64(total) * 100)
		}
		q.publishTaskEvent(events.EventTaskProgress, t)
	})
	if err != nil {
		if q.finishCancelled(taskCtx, t, seq) {
			return
		}
		q.releaseName(seq)
		q.failTask(t, NewTaskError(KindRemoteTransferFailed, err))
		return
	}

	t.setRemoteResult(obj)

	rec, terr := q.comp.AfterRemoteSuccess(taskCtx, q.projectID, t, obj)
	if terr != nil {
		// Cancellation during the metadata write: the compensating delete
		// already ran, so no record exists for this attempt.
		if q.finishCancelled(taskCtx, t, seq) {
			return
		}
		q.releaseName(seq)
		q.failTask(t, terr)
		return
	}

	q.commitName(seq)
	t.complete()
	q.publishTaskEvent(events.EventTaskCompleted, t)
	q.log.Info().
		Str("task", t.ID).
		Str("file", t.Source.Name()).
		Str("display_name", t.DisplayName()).
		Str("record", rec.ID).
		Msg("upload complete")
}

// finishCancelled handles the cooperative-abort path: the task returns to
// Pending with zero progress and no error.
func (q *Queue) finishCancelled(taskCtx context.Context, t *Task, seq int) bool {
	if !errors.Is(taskCtx.Err(), context.Canceled) {
		return false
	}
	q.releaseName(seq)
	t.resetToPending()
	q.publishTaskEvent(events.EventTaskCancelled, t)
	q.log.Info().Str("task", t.ID).Str("file", t.Source.Name()).Msg("upload cancelled")
	return true
}

func (q *Queue) failTask(t *Task, terr *TaskError) {
	t.fail(terr)
	q.publishTaskEvent(events.EventTaskFailed, t)
	if terr.Kind == KindOrphanedRemoteArtifact && q.deps.Bus != nil {
		q.deps.Bus.Publish(&events.OrphanEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventOrphanWarning, Time: time.Now()},
			TaskID:    t.ID,
			RemoteID:  terr.RemoteID,
			FileName:  t.Source.Name(),
		})
	}
	q.log.Error().
		Str("task", t.ID).
		Str("file", t.Source.Name()).
		Str("kind", string(terr.Kind)).
		Err(terr.Err).
		Msg("upload failed")
}

// Cancel aborts one uploading task. Sibling tasks are unaffected.
func (q *Queue) Cancel(taskID string) error {
	t, ok := q.task(taskID)
	if !ok {
		return errors.New("task not found")
	}
	if !t.Abort() {
		return errors.New("task is not uploading")
	}
	return nil
}

// CancelAll aborts every Uploading task and leaves Pending, Complete and
// Error tasks untouched.
func (q *Queue) CancelAll() {
	q.mu.RLock()
	tasks := make([]*Task, len(q.tasks))
	copy(tasks, q.tasks)
	q.mu.RUnlock()

	for _, t := range tasks {
		t.Abort()
	}
}

// ClearFinished removes Complete and Error tasks from the queue.
func (q *Queue) ClearFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := q.tasks[:0]
	for _, t := range q.tasks {
		if t.IsFinished() {
			delete(q.tasksByID, t.ID)
		} else {
			filtered = append(filtered, t)
		}
	}
	q.tasks = filtered
}

// Stats recomputes aggregate counts from task statuses.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var s Stats
	for _, t := range q.tasks {
		switch t.Status() {
		case StatusPending:
			s.Pending++
		case StatusUploading:
			s.Uploading++
		case StatusComplete:
			s.Complete++
		case StatusError:
			s.Error++
		}
	}
	return s
}

// Tasks returns snapshots of all tasks in queue order.
func (q *Queue) Tasks() []View {
	q.mu.RLock()
	defer q.mu.RUnlock()

	views := make([]View, len(q.tasks))
	for i, t := range q.tasks {
		views[i] = t.Snapshot()
	}
	return views
}

// Task returns a snapshot of one task.
func (q *Queue) TaskView(taskID string) (View, bool) {
	t, ok := q.task(taskID)
	if !ok {
		return View{}, false
	}
	return t.Snapshot(), true
}

func (q *Queue) task(taskID string) (*Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tasksByID[taskID]
	return t, ok
}

func (q *Queue) publishTaskEvent(eventType events.EventType, t *Task) {
	if q.deps.Bus == nil {
		return
	}
	v := t.Snapshot()
	ev := &events.TaskEvent{
		BaseEvent:   events.BaseEvent{EventType: eventType, Time: time.Now()},
		TaskID:      v.ID,
		FileName:    v.FileName,
		DisplayName: v.DisplayName,
		Category:    string(v.Category),
		SizeBytes:   v.SizeBytes,
		Percent:     v.Percent,
		ErrorKind:   string(v.ErrorKind),
	}
	if te := t.Err(); te != nil {
		ev.Err = te
	}
	q.deps.Bus.Publish(ev)
}
