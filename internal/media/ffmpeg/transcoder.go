// Package ffmpeg implements models.Transcoder with a single ffmpeg invocation
// per clip.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const (
	OutputWidth  = 1080
	OutputHeight = 1920

	defaultTimeout = 300 * time.Second
)

// Transcoder cuts one segment of a source into a vertical MP4.
type Transcoder struct {
	binary  string
	timeout time.Duration
}

// New creates a Transcoder. Empty binary means "ffmpeg" on PATH.
func New(binary string, timeout time.Duration) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Transcoder{binary: binary, timeout: timeout}
}

// Transcode renders req into req.OutputPath and returns that path.
func (t *Transcoder) Transcode(ctx context.Context, req models.TranscodeRequest) (string, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return "", &media.Error{Op: media.OpTranscode, Kind: media.KindFailed, Detail: "input and output paths are required"}
	}
	if req.LengthSeconds <= 0 {
		return "", &media.Error{Op: media.OpTranscode, Kind: media.KindFailed, Detail: fmt.Sprintf("invalid clip length %v", req.LengthSeconds)}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", &media.Error{Op: media.OpTranscode, Kind: media.KindFailed, Detail: "creating output directory", Err: err}
	}

	if _, err := media.Run(ctx, media.OpTranscode, t.timeout, t.binary, BuildArgs(req)...); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

// BuildArgs returns the ffmpeg arguments for req. Seeking happens before the
// input for speed; the duration is applied after it.
func BuildArgs(req models.TranscodeRequest) []string {
	return []string{
		"-y",
		"-ss", media.FormatSeconds(req.StartSeconds),
		"-i", req.InputPath,
		"-t", media.FormatSeconds(req.LengthSeconds),
		"-vf", VideoFilter(req.Source),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		req.OutputPath,
	}
}

// VideoFilter builds the centered 9:16 crop followed by the scale to 1080x1920.
func VideoFilter(g models.Geometry) string {
	if g.Width <= 0 || g.Height <= 0 {
		g = models.DefaultGeometry
	}
	cw, h := VerticalCrop(g)
	return fmt.Sprintf("crop=%d:%d:(%d-%d)/2:0,scale=%d:%d,setsar=1", cw, h, g.Width, cw, OutputWidth, OutputHeight)
}

// VerticalCrop returns the crop width and height for a 9:16 window over g.
// Unknown geometry falls back to models.DefaultGeometry.
func VerticalCrop(g models.Geometry) (cropWidth, cropHeight int) {
	if g.Width <= 0 || g.Height <= 0 {
		g = models.DefaultGeometry
	}
	cw := g.Height * 9 / 16
	if cw > g.Width {
		cw = g.Width
	}
	cw -= cw % 2
	if cw < 2 {
		cw = 2
	}
	return cw, g.Height
}

var _ models.Transcoder = (*Transcoder)(nil)
