package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photosync/internal/logging"
)

// ErrWorkerStopped is returned when work is submitted to a stopped Worker.
var ErrWorkerStopped = errors.New("camera worker stopped")

// Worker runs submitted tasks one at a time, in submission order, on a
// dedicated goroutine.
type Worker struct {
	name   string
	logger logging.Logger

	mu      sync.RWMutex
	tasks   chan func()
	started bool
	stopped bool
	done    chan struct{}
}

func NewWorker(name string, logger logging.Logger) *Worker {
	return &Worker{
		name:   name,
		logger: logger,
		tasks:  make(chan func(), 16),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.loop()
}

func (w *Worker) loop() {
	defer close(w.done)
	for task := range w.tasks {
		w.run(task)
	}
}

func (w *Worker) run(task func()) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error(context.Background(), "camera task panicked", "worker", w.name, "panic", fmt.Sprint(p))
		}
	}()
	task()
}

// Submit queues task. It fails with ErrWorkerStopped once Stop was called.
func (w *Worker) Submit(task func()) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	w.tasks <- task
	return nil
}

// Do runs fn on the worker and waits for its result. If ctx ends first Do
// returns ctx.Err(); fn still runs later and must check for staleness.
func (w *Worker) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := w.Submit(func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new work, runs everything already queued and waits for the
// goroutine to exit. It is safe to call more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	close(w.tasks)
	started := w.started
	w.mu.Unlock()

	if !started {
		// Never started: drain inline so queued tasks still run in order.
		for task := range w.tasks {
			w.run(task)
		}
		close(w.done)
		return
	}
	<-w.done
}

// Stopped reports whether Stop has been called.
func (w *Worker) Stopped() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopped
}
