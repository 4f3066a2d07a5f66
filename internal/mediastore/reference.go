// Package mediastore lists the photos saved on the device, newest first.
//
// Two listers are provided: Scanner walks the pictures directory, Index
// reads a SQLite table that also tracks which photos were uploaded.
package mediastore

import (
	"cmp"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ImageReference locates one saved photo. Only Path identifies it.
type ImageReference struct {
	Path    string
	TakenAt time.Time
}

func (r ImageReference) Name() string { return filepath.Base(r.Path) }

// Lister returns every saved photo, newest first. A missing storage
// permission is reported as common.ErrPermissionDenied.
type Lister interface {
	List(ctx context.Context) ([]ImageReference, error)
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImage reports whether name has a photo extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// SortNewestFirst orders refs by TakenAt descending, then by path.
func SortNewestFirst(refs []ImageReference) {
	slices.SortStableFunc(refs, func(a, b ImageReference) int {
		if c := b.TakenAt.Compare(a.TakenAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}
