// Package bundle streams all clips of a finished job as one zip archive.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kiranshivaraju/clipper/internal/textutil"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"github.com/klauspost/compress/zip"
)

// ErrNotFinished is returned for jobs that have not reached done.
var ErrNotFinished = errors.New("job is not finished")

// Write streams a zip of job's clips to w and returns how many entries were
// written. Clips are stored in order as "<title>_<position>.mp4". Clip files
// missing on disk are skipped. Entries use the Store method since MP4 payloads
// are already compressed.
func Write(w io.Writer, job models.Job, layout workspace.Layout) (int, error) {
	if job.Status != models.JobStatusDone {
		return 0, ErrNotFinished
	}

	zw := zip.NewWriter(w)
	written := 0
	for i, clip := range job.Clips {
		ok, err := addClip(zw, layout.ClipPath(job.ID, clip.Filename), textutil.ClipFileName(job.VideoTitle, i+1), job.UpdatedAt)
		if err != nil {
			_ = zw.Close()
			return written, err
		}
		if ok {
			written++
		}
	}

	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finishing archive: %w", err)
	}
	return written, nil
}

func addClip(zw *zip.Writer, path, name string, modified time.Time) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: modified,
	}
	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return false, fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return false, fmt.Errorf("writing %s: %w", name, err)
	}
	return true, nil
}
