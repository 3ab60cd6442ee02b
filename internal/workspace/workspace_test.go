package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	id := uuid.MustParse("3f1c2f9e-8a7b-4c3d-9e2f-1a2b3c4d5e6f")
	l := New("/data/out/")

	assert.Equal(t, "/data/out/3f1c2f9e-8a7b-4c3d-9e2f-1a2b3c4d5e6f", l.JobDir(id))
	assert.Equal(t, "clip_0.mp4", ClipName(0))
	assert.Equal(t, "clip_12.mp4", ClipName(12))
	assert.Equal(t, filepath.Join(l.JobDir(id), "clip_3.mp4"), l.ClipPath(id, "clip_3.mp4"))
}

func TestLayout_ClipPathCannotEscape(t *testing.T) {
	id := uuid.New()
	l := New("/data/out")
	assert.Equal(t, filepath.Join(l.JobDir(id), "passwd"), l.ClipPath(id, "../../etc/passwd"))
}

func TestLayout_PrepareAndRemove(t *testing.T) {
	l := New(t.TempDir())
	id := uuid.New()

	dir, err := l.Prepare(id)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ClipName(0)), []byte("x"), 0o644))
	require.NoError(t, l.Remove(id))
	assert.NoDirExists(t, dir)

	// removing twice is fine
	assert.NoError(t, l.Remove(id))
}

func TestLayout_RemoveSource(t *testing.T) {
	l := New(t.TempDir())
	path := filepath.Join(l.Root, "source.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, l.RemoveSource(path))
	assert.NoFileExists(t, path)
	assert.NoError(t, l.RemoveSource(path))
	assert.NoError(t, l.RemoveSource(""))
}

func TestLayout_Lock(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	l := New(root)

	unlock, err := l.Lock()
	require.NoError(t, err)
	assert.DirExists(t, root)

	_, err = New(root).Lock()
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())

	unlock, err = New(root).Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}
