package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	chunk   int
	rewind  bool
	err     error
	block   chan struct{}
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}, chunk: 7}
}

func (m *memStore) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.err != nil {
		return m.err
	}
	if m.rewind {
		// Read half, then start over the way signing stores do.
		half := make([]byte, size/2)
		if _, err := io.ReadFull(body, half); err != nil {
			return err
		}
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	var out bytes.Buffer
	buf := make([]byte, m.chunk)
	for {
		n, err := body.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.objects[key] = out.Bytes()
	m.types[key] = contentType
	m.mu.Unlock()
	return nil
}

func collect(t *testing.T, job *Job) []Event {
	t.Helper()
	var evs []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-job.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-timeout:
			t.Fatal("events channel was not closed")
		}
	}
}

func requireWellFormed(t *testing.T, evs []Event) Event {
	t.Helper()
	require.NotEmpty(t, evs)
	last := -1
	for i, ev := range evs {
		if i < len(evs)-1 {
			require.Equal(t, EventProgress, ev.Kind, "only the last event may be terminal")
			require.GreaterOrEqual(t, ev.Percent, 0)
			require.LessOrEqual(t, ev.Percent, 100)
			require.GreaterOrEqual(t, ev.Percent, last, "progress must not go down")
			last = ev.Percent
		}
	}
	term := evs[len(evs)-1]
	require.True(t, term.Terminal())
	return term
}

func TestUpload_BytesSucceeds(t *testing.T) {
	store := newMemStore()
	c := NewClient(store, "", logging.Discard())
	data := bytes.Repeat([]byte("photo"), 200)

	job := c.Upload(context.Background(), Bytes(data))
	evs := collect(t, job)
	term := requireWellFormed(t, evs)

	assert.Equal(t, EventSucceeded, term.Kind)
	assert.Equal(t, 100, term.Percent)
	require.NoError(t, job.Err())

	assert.True(t, strings.HasPrefix(job.Key(), "images/"))
	_, err := uuid.Parse(strings.TrimPrefix(job.Key(), "images/"))
	require.NoError(t, err)

	assert.Equal(t, data, store.objects[job.Key()])
	assert.Equal(t, "image/jpeg", store.types[job.Key()])
}

func TestUpload_ProgressMonotonicAcrossRewind(t *testing.T) {
	store := newMemStore()
	store.rewind = true
	store.chunk = 3
	c := NewClient(store, "images", logging.Discard())
	c.buffer = 256

	job := c.Upload(context.Background(), Bytes(bytes.Repeat([]byte{1}, 100)))
	evs := collect(t, job)
	term := requireWellFormed(t, evs)
	assert.Equal(t, EventSucceeded, term.Kind)
	assert.Greater(t, len(evs), 2)
	assert.Equal(t, 100, evs[len(evs)-2].Percent)
}

func TestUpload_StoreErrorIsUploadFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	c := NewClient(store, "images", logging.Discard())

	job := c.Upload(context.Background(), Bytes([]byte("x")))
	evs := collect(t, job)
	term := requireWellFormed(t, evs)

	assert.Equal(t, EventFailed, term.Kind)
	require.ErrorIs(t, term.Err, common.ErrUploadFailure)
	var ue *common.UploadError
	require.ErrorAs(t, term.Err, &ue)
	assert.Equal(t, job.Key(), ue.Key)
	assert.Contains(t, ue.Error(), "connection reset")

	require.ErrorIs(t, job.Wait(context.Background()), common.ErrUploadFailure)
}

func TestUpload_NonListeningCallerStillCompletes(t *testing.T) {
	store := newMemStore()
	store.chunk = 1
	c := NewClient(store, "images", logging.Discard())
	c.buffer = 2
	data := bytes.Repeat([]byte{9}, 1000)

	job := c.Upload(context.Background(), Bytes(data))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, data, store.objects[job.Key()])

	// The terminal event is buffered for a late reader.
	evs := collect(t, job)
	term := requireWellFormed(t, evs)
	assert.Equal(t, EventSucceeded, term.Kind)
}

func TestUpload_DistinctKeys(t *testing.T) {
	store := newMemStore()
	c := NewClient(store, "images", logging.Discard())

	a := c.Upload(context.Background(), Bytes([]byte("same")))
	b := c.Upload(context.Background(), Bytes([]byte("same")))
	require.NoError(t, a.Err())
	require.NoError(t, b.Err())

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Len(t, store.objects, 2)
}

func TestUpload_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(p, []byte("not really png"), 0o644))

	store := newMemStore()
	c := NewClient(store, "backup/", logging.Discard())

	job := c.Upload(context.Background(), File(p))
	require.NoError(t, job.Err())
	assert.True(t, strings.HasPrefix(job.Key(), "backup/"))
	assert.Equal(t, "image/png", store.types[job.Key()])
	assert.Equal(t, p, job.Source())
}

func TestUpload_MissingFileFails(t *testing.T) {
	c := NewClient(newMemStore(), "images", logging.Discard())

	job := c.Upload(context.Background(), File(filepath.Join(t.TempDir(), "gone.jpg")))
	evs := collect(t, job)
	require.Len(t, evs, 1)
	assert.Equal(t, EventFailed, evs[0].Kind)
	require.ErrorIs(t, evs[0].Err, common.ErrUploadFailure)
	require.ErrorIs(t, evs[0].Err, common.ErrIOFailure)
}

func TestUpload_CancelledWhileTransferring(t *testing.T) {
	store := newMemStore()
	store.block = make(chan struct{})
	c := NewClient(store, "images", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	job := c.Upload(ctx, Bytes([]byte("x")))
	cancel()

	err := job.Err()
	require.ErrorIs(t, err, common.ErrUploadFailure)
	require.ErrorIs(t, err, context.Canceled)
}

func TestJob_WaitHonoursContext(t *testing.T) {
	store := newMemStore()
	store.block = make(chan struct{})
	defer close(store.block)
	c := NewClient(store, "images", logging.Discard())

	job := c.Upload(context.Background(), Bytes([]byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, job.Wait(ctx), context.DeadlineExceeded)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int64
		want        int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 66},
		{99, 100, 99},
		{100, 100, 100},
		{150, 100, 100},
		{5, 0, 0},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}
