package upload

import (
	"context"
	"sync"
)

// EventKind distinguishes progress from the two terminal outcomes.
type EventKind int

const (
	EventProgress EventKind = iota
	EventSucceeded
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	}
	return "unknown"
}

// Event is one observation of an upload. Err is set only on EventFailed
// and is a *common.UploadError.
type Event struct {
	Kind    EventKind
	Key     string
	Percent int
	Err     error
}

// Terminal reports whether e ends the job.
func (e Event) Terminal() bool { return e.Kind != EventProgress }

// Job is one upload in flight. Its key is fixed at creation; the outcome is
// set once.
type Job struct {
	key    string
	source string

	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

func newJob(key, source string, buffer int) *Job {
	if buffer < 2 {
		buffer = 2
	}
	return &Job{
		key:    key,
		source: source,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Key is the remote object key.
func (j *Job) Key() string { return j.key }

// Source describes what is being uploaded.
func (j *Job) Source() string { return j.source }

// Events yields progress, then exactly one terminal event, then closes.
// Reading it is optional.
func (j *Job) Events() <-chan Event { return j.events }

// Done is closed once the outcome is known.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err is the outcome; valid after Done is closed.
func (j *Job) Err() error {
	<-j.done
	return j.err
}

// Wait blocks until the job finishes or ctx ends.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// progress drops the event when the buffer is nearly full or the job has
// already finished. The last slot is kept for the terminal event. HTTP
// transports read the body on their own goroutine and may keep reading
// after the store call has returned.
func (j *Job) progress(pct int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed || len(j.events) >= cap(j.events)-1 {
		return
	}
	j.events <- Event{Kind: EventProgress, Key: j.key, Percent: pct}
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	j.closed = true
	j.err = err
	ev := Event{Kind: EventSucceeded, Key: j.key, Percent: 100}
	if err != nil {
		ev = Event{Kind: EventFailed, Key: j.key, Err: err}
	}
	j.events <- ev
	close(j.events)
	close(j.done)
}
