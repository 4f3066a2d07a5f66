package app

import (
	"context"

	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

// Transfer is an upload started by the shell. It is done once every event
// was handed to the dispatcher and the index was updated.
type Transfer struct {
	Ref mediastore.ImageReference
	Job *upload.Job

	done chan struct{}
}

// Wait blocks until the transfer is done and returns the upload outcome.
func (t *Transfer) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Job.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll waits for every transfer and returns how many succeeded and the
// first failure.
func WaitAll(ctx context.Context, ts []*Transfer) (int, error) {
	ok := 0
	var first error
	for _, t := range ts {
		if err := t.Wait(ctx); err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		ok++
	}
	return ok, first
}
