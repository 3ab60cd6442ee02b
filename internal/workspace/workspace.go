// Package workspace owns the on-disk layout of job artifacts:
//
//	<root>/<job id>/source.<ext>
//	<root>/<job id>/clip_<index>.mp4
//
// It also guards the root with a lock file so two servers never share it.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockFileName = ".clipper.lock"

// ErrLocked is returned by Lock when another process holds the output root.
var ErrLocked = errors.New("output root is locked by another process")

// Layout resolves artifact paths under Root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// JobDir returns the artifact directory for a job.
func (l Layout) JobDir(id uuid.UUID) string {
	return filepath.Join(l.Root, id.String())
}

// Prepare creates the job directory.
func (l Layout) Prepare(id uuid.UUID) (string, error) {
	dir := l.JobDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("preparing job directory: %w", err)
	}
	return dir, nil
}

// ClipName is the file name of the clip at index.
func ClipName(index int) string {
	return fmt.Sprintf("clip_%d.mp4", index)
}

// ClipPath resolves a clip filename inside the job directory. Only the base
// name of filename is used, so a stored descriptor can never escape the root.
func (l Layout) ClipPath(id uuid.UUID, filename string) string {
	return filepath.Join(l.JobDir(id), filepath.Base(filename))
}

// RemoveSource deletes a downloaded source file. A missing file is not an error.
func (l Layout) RemoveSource(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing source: %w", err)
	}
	return nil
}

// Remove deletes the job directory and everything in it.
func (l Layout) Remove(id uuid.UUID) error {
	if err := os.RemoveAll(l.JobDir(id)); err != nil {
		return fmt.Errorf("removing job directory: %w", err)
	}
	return nil
}

// Lock creates the root if needed and takes an exclusive, non-blocking lock on
// it. The returned function releases the lock.
func (l Layout) Lock() (func() error, error) {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}
	lock := flock.New(filepath.Join(l.Root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}
