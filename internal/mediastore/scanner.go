package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/photosync/internal/common"
)

// Scanner lists photos by walking a directory tree.
type Scanner struct {
	dir     string
	granted func() bool
}

// NewScanner walks dir. granted is consulted on every List; nil means
// always granted.
func NewScanner(dir string, granted func() bool) *Scanner {
	if granted == nil {
		granted = func() bool { return true }
	}
	return &Scanner{dir: dir, granted: granted}
}

func (s *Scanner) Dir() string { return s.dir }

func (s *Scanner) List(ctx context.Context) ([]ImageReference, error) {
	if !s.granted() {
		return nil, &common.PermissionError{Capability: common.CapabilityStorage}
	}

	refs := []ImageReference{}
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != s.dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Removed between readdir and stat.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		refs = append(refs, ImageReference{Path: p, TakenAt: info.ModTime()})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan %s: %w", common.ErrIOFailure, s.dir, err)
	}

	SortNewestFirst(refs)
	return refs, nil
}
