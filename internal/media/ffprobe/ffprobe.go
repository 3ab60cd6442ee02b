// Package ffprobe provides a typed wrapper around ffprobe JSON output and a
// models.Prober built on it.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// VideoStream returns the first video stream, if any.
func (r Result) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "video") {
			return s, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration, falling back to the first
// video stream. Returns 0 when neither is usable.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	if v, ok := r.VideoStream(); ok {
		if d := parseFloat(v.Duration); d > 0 {
			return d
		}
	}
	return 0
}

// Parse decodes raw ffprobe JSON.
func Parse(raw []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Prober implements models.Prober.
type Prober struct {
	binary  string
	timeout time.Duration
}

// NewProber creates a Prober. Empty binary means "ffprobe" on PATH.
func NewProber(binary string, timeout time.Duration) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{binary: binary, timeout: timeout}
}

// Probe inspects path. Missing stream dimensions are reported as 0×0 rather
// than an error; a missing or non-positive duration is an error.
func (p *Prober) Probe(ctx context.Context, path string) (models.ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return models.ProbeResult{}, &media.Error{Op: media.OpProbe, Kind: media.KindFailed, Detail: "empty path"}
	}

	res, err := media.Run(ctx, media.OpProbe, p.timeout, p.binary,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return models.ProbeResult{}, err
	}

	parsed, err := Parse(res.Stdout)
	if err != nil {
		return models.ProbeResult{}, &media.Error{Op: media.OpProbe, Kind: media.KindFailed, Detail: err.Error(), Err: err}
	}

	duration := parsed.DurationSeconds()
	if duration <= 0 {
		err := errors.New("media has no usable duration")
		return models.ProbeResult{}, &media.Error{Op: media.OpProbe, Kind: media.KindFailed, Detail: err.Error(), Err: err}
	}

	out := models.ProbeResult{DurationSeconds: duration}
	if v, ok := parsed.VideoStream(); ok && v.Width > 0 && v.Height > 0 {
		out.Width = v.Width
		out.Height = v.Height
	}
	return out, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}

var _ models.Prober = (*Prober)(nil)
