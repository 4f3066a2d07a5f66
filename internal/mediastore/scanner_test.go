package mediastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photosync/internal/common"
)

func writeAt(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	require.NoError(t, os.Chtimes(path, at, at))
}

func paths(refs []ImageReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Path
	}
	return out
}

func TestScanner_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	writeAt(t, filepath.Join(dir, "a.jpg"), t1)
	writeAt(t, filepath.Join(dir, "b.jpg"), t2)
	writeAt(t, filepath.Join(dir, "c.jpg"), t3)

	refs, err := NewScanner(dir, nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "c.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "a.jpg"),
	}, paths(refs))
	assert.True(t, refs[0].TakenAt.Equal(t3))
}

func TestScanner_FiltersAndRecurses(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	writeAt(t, filepath.Join(dir, "x.JPEG"), at)
	writeAt(t, filepath.Join(dir, "sub", "y.png"), at)
	writeAt(t, filepath.Join(dir, "notes.txt"), at)
	writeAt(t, filepath.Join(dir, ".pending.jpg.tmp-1"), at)
	writeAt(t, filepath.Join(dir, ".hidden", "z.jpg"), at)

	refs, err := NewScanner(dir, nil).List(context.Background())
	require.NoError(t, err)
	// Equal times sort by path.
	assert.Equal(t, []string{
		filepath.Join(dir, "sub", "y.png"),
		filepath.Join(dir, "x.JPEG"),
	}, paths(refs))
}

func TestScanner_EmptyAndMissing(t *testing.T) {
	refs, err := NewScanner(t.TempDir(), nil).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	refs, err = NewScanner(filepath.Join(t.TempDir(), "nope"), nil).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestScanner_PermissionDenied(t *testing.T) {
	s := NewScanner(t.TempDir(), func() bool { return false })
	_, err := s.List(context.Background())
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestScanner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "a.jpg"), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(dir, nil).List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("a.jpg"))
	assert.True(t, IsImage("a.JPG"))
	assert.True(t, IsImage("a.jpeg"))
	assert.True(t, IsImage("a.png"))
	assert.False(t, IsImage("a.gif"))
	assert.False(t, IsImage("jpg"))
}
