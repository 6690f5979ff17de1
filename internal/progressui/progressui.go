// Package progressui renders per-task upload progress bars in the terminal
// using mpb, fed entirely by pipeline events. Non-TTY output degrades to
// plain log lines.
package progressui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/reelpipe/uplink/internal/events"
)

// Renderer owns one mpb.Progress and one bar per active task.
type Renderer struct {
	progress   *mpb.Progress
	isTerminal bool

	mu   sync.Mutex
	bars map[string]*mpb.Bar // taskID -> bar
	done chan struct{}
}

// New creates a renderer writing to stderr. When stderr is not a terminal
// the bars are discarded and callers should rely on log output instead.
func New() *Renderer {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &Renderer{
		progress:   p,
		isTerminal: isTerminal,
		bars:       make(map[string]*mpb.Bar),
		done:       make(chan struct{}),
	}
}

// IsTerminal reports whether bars are actually being drawn.
func (r *Renderer) IsTerminal() bool { return r.isTerminal }

// Writer returns a writer that prints above active bars.
func (r *Renderer) Writer() io.Writer {
	if r.isTerminal {
		return r.progress
	}
	return os.Stderr
}

// Run consumes events from ch until it closes, updating bars. Call in a
// goroutine; Wait blocks until Run returns and all bars have drained.
func (r *Renderer) Run(ch <-chan events.Event) {
	defer close(r.done)

	for ev := range ch {
		switch e := ev.(type) {
		case *events.TaskEvent:
			r.handleTaskEvent(e)
		case *events.BatchEvent:
			return
		}
	}
}

// Wait blocks until Run has finished and flushes remaining bar output.
func (r *Renderer) Wait() {
	<-r.done
	r.progress.Wait()
}

func (r *Renderer) handleTaskEvent(e *events.TaskEvent) {
	switch e.Type() {
	case events.EventTaskStarted:
		r.addBar(e)
	case events.EventTaskProgress:
		r.setProgress(e)
	case events.EventTaskCompleted:
		r.finishBar(e.TaskID, true)
	case events.EventTaskFailed, events.EventTaskCancelled:
		r.finishBar(e.TaskID, false)
	}
}

func (r *Renderer) addBar(e *events.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bars[e.TaskID]; ok {
		return
	}

	name := e.DisplayName
	if name == "" {
		name = e.FileName
	}

	bar := r.progress.AddBar(e.SizeBytes,
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("%-30.30s", name)),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.AverageSpeed(decor.SizeB1024(0), " % .1f"),
		),
		mpb.BarRemoveOnComplete(),
	)
	r.bars[e.TaskID] = bar
}

func (r *Renderer) setProgress(e *events.TaskEvent) {
	r.mu.Lock()
	bar, ok := r.bars[e.TaskID]
	r.mu.Unlock()
	if !ok {
		return
	}
	bar.SetCurrent(int64(e.Percent / 100 * float64(e.SizeBytes)))
}

func (r *Renderer) finishBar(taskID string, completed bool) {
	r.mu.Lock()
	bar, ok := r.bars[taskID]
	delete(r.bars, taskID)
	r.mu.Unlock()
	if !ok {
		return
	}
	if completed {
		// Fill and complete the bar; BarRemoveOnComplete clears it.
		bar.SetTotal(-1, true)
		return
	}
	bar.Abort(true)
}
