package mock

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

// Fetcher satisfies models.SourceFetcher for testing.
type Fetcher struct {
	FetchFunc func(ctx context.Context, url, destDir string) (models.FetchResult, error)
}

func (m *Fetcher) Fetch(ctx context.Context, url, destDir string) (models.FetchResult, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url, destDir)
	}
	return models.FetchResult{}, nil
}

// NewFetcher returns a Fetcher that writes a small source.mp4 into destDir and
// reports title.
func NewFetcher(title string) *Fetcher {
	return &Fetcher{
		FetchFunc: func(_ context.Context, _ string, destDir string) (models.FetchResult, error) {
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return models.FetchResult{}, err
			}
			path := filepath.Join(destDir, "source.mp4")
			if err := os.WriteFile(path, []byte("source"), 0o644); err != nil {
				return models.FetchResult{}, err
			}
			return models.FetchResult{Path: path, Title: title}, nil
		},
	}
}

// NewFailingFetcher returns a Fetcher that always fails with the given kind.
func NewFailingFetcher(kind media.Kind, detail string) *Fetcher {
	return &Fetcher{
		FetchFunc: func(_ context.Context, _, _ string) (models.FetchResult, error) {
			return models.FetchResult{}, &media.Error{Op: media.OpFetch, Kind: kind, Detail: detail}
		},
	}
}

// Prober satisfies models.Prober for testing.
type Prober struct {
	ProbeFunc func(ctx context.Context, path string) (models.ProbeResult, error)
}

func (m *Prober) Probe(ctx context.Context, path string) (models.ProbeResult, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return models.ProbeResult{}, nil
}

// NewProber returns a Prober that always reports result.
func NewProber(result models.ProbeResult) *Prober {
	return &Prober{
		ProbeFunc: func(_ context.Context, _ string) (models.ProbeResult, error) {
			return result, nil
		},
	}
}

// NewFailingProber returns a Prober that always fails.
func NewFailingProber(detail string) *Prober {
	return &Prober{
		ProbeFunc: func(_ context.Context, _ string) (models.ProbeResult, error) {
			return models.ProbeResult{}, &media.Error{Op: media.OpProbe, Kind: media.KindFailed, Detail: detail}
		},
	}
}

// Transcoder satisfies models.Transcoder for testing. Every request it sees
// is recorded in order.
type Transcoder struct {
	TranscodeFunc func(ctx context.Context, req models.TranscodeRequest) (string, error)

	mu       sync.Mutex
	requests []models.TranscodeRequest
}

func (m *Transcoder) Transcode(ctx context.Context, req models.TranscodeRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.TranscodeFunc != nil {
		return m.TranscodeFunc(ctx, req)
	}
	return writeOutput(req)
}

// Requests returns a copy of the requests seen so far.
func (m *Transcoder) Requests() []models.TranscodeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TranscodeRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewTranscoder returns a Transcoder that writes a placeholder file for every clip.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// NewFailingTranscoder returns a Transcoder that succeeds for the first n
// calls and fails every call after that. The failing call leaves a partial
// output on disk, the way an interrupted ffmpeg run would.
func NewFailingTranscoder(n int) *Transcoder {
	t := &Transcoder{}
	var calls int
	t.TranscodeFunc = func(_ context.Context, req models.TranscodeRequest) (string, error) {
		calls++
		if calls > n {
			_ = os.WriteFile(req.OutputPath, []byte("partial"), 0o644)
			return "", &media.Error{Op: media.OpTranscode, Kind: media.KindFailed, Detail: "encoder crashed"}
		}
		return writeOutput(req)
	}
	return t
}

func writeOutput(req models.TranscodeRequest) (string, error) {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(req.OutputPath, []byte("clip"), 0o644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

var (
	_ models.SourceFetcher = (*Fetcher)(nil)
	_ models.Prober        = (*Prober)(nil)
	_ models.Transcoder    = (*Transcoder)(nil)
)
