package upload

import (
	"io"
	"sync"
)

// progressReader reports how far into body the store has read. Stores may
// seek back and re-read (signing, retries); only the high-water mark is
// reported so the percentage never goes down.
type progressReader struct {
	mu     sync.Mutex
	body   io.ReadSeeker
	total  int64
	pos    int64
	high   int64
	report func(percent int)
	last   int
}

func newProgressReader(body io.ReadSeeker, total int64, report func(int)) *progressReader {
	return &progressReader{body: body, total: total, report: report, last: -1}
}

func (r *progressReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.body.Read(p)
	r.pos += int64(n)
	if r.pos > r.high {
		r.high = r.pos
		r.emit()
	}
	return n, err
}

func (r *progressReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, err := r.body.Seek(offset, whence)
	if err == nil {
		r.pos = pos
	}
	return pos, err
}

func (r *progressReader) emit() {
	pct := Percent(r.high, r.total)
	if pct > r.last {
		r.last = pct
		r.report(pct)
	}
}

// Percent is floor(transferred/total*100) clamped to [0,100].
func Percent(transferred, total int64) int {
	if total <= 0 || transferred <= 0 {
		return 0
	}
	if transferred >= total {
		return 100
	}
	return int(transferred * 100 / total)
}
