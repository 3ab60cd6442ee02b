// Package models contains shared data models used across the clipper codebase.
package models

import "context"

// SourceFetcher materializes a remote video as a local file.
// Never call yt-dlp directly from the orchestrator; always inject this interface.
type SourceFetcher interface {
	// Fetch downloads url into destDir. Title retrieval is best effort.
	Fetch(ctx context.Context, url, destDir string) (FetchResult, error)
}

// Prober extracts duration and geometry from a local media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// Transcoder renders one time-bounded, reframed sub-clip.
type Transcoder interface {
	// Transcode writes req.OutputPath and returns it on success.
	Transcode(ctx context.Context, req TranscodeRequest) (string, error)
}

// FetchResult is the output of a successful fetch.
type FetchResult struct {
	Path  string
	Title string
}

// ProbeResult holds the properties the planner and transcoder need.
// Width and Height are zero when the source has no readable video stream dimensions.
type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// Geometry is a frame size in pixels.
type Geometry struct {
	Width  int
	Height int
}

// DefaultGeometry is assumed when the prober cannot report stream dimensions.
var DefaultGeometry = Geometry{Width: 1920, Height: 1080}

// TranscodeRequest describes one clip window to render.
type TranscodeRequest struct {
	InputPath     string
	StartSeconds  float64
	LengthSeconds float64
	Source        Geometry
	OutputPath    string
}
