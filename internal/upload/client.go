// Package upload pushes photos to a remote object store and reports each
// transfer as a stream of events.
package upload

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

// DefaultPrefix is the remote folder objects are written under.
const DefaultPrefix = "images"

// Store writes one object. body may be read more than once after seeking
// back to the start.
type Store interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
}

// Client starts uploads. It is safe for concurrent use; jobs are
// independent of one another.
type Client struct {
	store  Store
	prefix string
	logger logging.Logger

	newID  func() string
	buffer int
}

func NewClient(store Store, prefix string, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{
		store:  store,
		prefix: prefix,
		logger: logger,
		newID:  uuid.NewString,
		buffer: 16,
	}
}

// NewKey returns a fresh {prefix}/{uuid} key.
func (c *Client) NewKey() string {
	return path.Join(c.prefix, c.newID())
}

// Upload starts sending p under a newly generated key and returns at once.
// No retry is attempted; a failed job ends with an EventFailed whose Err is
// a *common.UploadError.
func (c *Client) Upload(ctx context.Context, p Payload) *Job {
	job := newJob(c.NewKey(), p.String(), c.buffer)
	go c.run(ctx, job, p)
	return job
}

func (c *Client) run(ctx context.Context, job *Job, p Payload) {
	log := c.logger.With("key", job.key, "source", job.source)

	body, size, contentType, closeBody, err := p.open()
	if err != nil {
		log.Error(ctx, "upload: open source failed", "error", err.Error())
		job.finish(&common.UploadError{Key: job.key, Reason: err})
		return
	}
	defer func() { _ = closeBody() }()

	if err := ctx.Err(); err != nil {
		job.finish(&common.UploadError{Key: job.key, Reason: err})
		return
	}

	pr := newProgressReader(body, size, job.progress)
	log.Debug(ctx, "upload started", "bytes", size, "content_type", contentType)

	if err := c.store.Put(ctx, job.key, pr, size, contentType); err != nil {
		log.Error(ctx, "upload failed", "error", err.Error())
		job.finish(&common.UploadError{Key: job.key, Reason: err})
		return
	}

	log.Info(ctx, "upload succeeded", "bytes", size)
	job.finish(nil)
}
