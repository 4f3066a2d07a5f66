package app

import (
	"context"

	"github.com/dmitrijs2005/photosync/internal/camera"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

// Dispatcher is the single UI context. Everything that touches the screen
// (gallery rendering, upload notifications) is posted here and runs in
// order on one goroutine.
type Dispatcher struct {
	w *camera.Worker
}

func NewDispatcher(logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	w := camera.NewWorker("ui", logger)
	w.Start()
	return &Dispatcher{w: w}
}

// Post queues fn. It returns false once the dispatcher is stopped.
func (d *Dispatcher) Post(fn func()) bool {
	return d.w.Submit(fn) == nil
}

// Do runs fn on the dispatcher and waits for it.
func (d *Dispatcher) Do(ctx context.Context, fn func() error) error {
	return d.w.Do(ctx, fn)
}

// Stop runs what is queued and then refuses further work.
func (d *Dispatcher) Stop() { d.w.Stop() }
