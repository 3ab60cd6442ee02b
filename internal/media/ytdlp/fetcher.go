// Package ytdlp implements models.SourceFetcher on top of the yt-dlp binary.
package ytdlp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const (
	// SourceBaseName is the file stem every downloaded source is saved under.
	SourceBaseName = "source"

	defaultFetchTimeout = 600 * time.Second
	defaultTitleTimeout = 30 * time.Second
)

// Config tunes the fetcher.
type Config struct {
	Binary       string
	Timeout      time.Duration
	TitleTimeout time.Duration
	// Format is passed to -f; empty selects the best mp4-mergeable streams.
	Format string
}

// Fetcher downloads a remote video into a job directory.
type Fetcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Fetcher, filling unset fields with defaults.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.TitleTimeout <= 0 {
		cfg.TitleTimeout = defaultTitleTimeout
	}
	if cfg.Format == "" {
		cfg.Format = "bestvideo+bestaudio/best"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// Fetch downloads url into destDir/source.<ext>. Any partially written source
// file is removed on failure. A failed title lookup only yields an empty title.
func (f *Fetcher) Fetch(ctx context.Context, url, destDir string) (models.FetchResult, error) {
	if strings.TrimSpace(url) == "" {
		return models.FetchResult{}, &media.Error{Op: media.OpFetch, Kind: media.KindUnsupportedSource, Detail: "video URL is required"}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return models.FetchResult{}, &media.Error{Op: media.OpFetch, Kind: media.KindFailed, Detail: "creating output directory", Err: err}
	}

	_, err := media.Run(ctx, media.OpFetch, f.cfg.Timeout, f.cfg.Binary, DownloadArgs(url, destDir, f.cfg.Format)...)
	if err != nil {
		RemovePartial(destDir)
		return models.FetchResult{}, classify(err)
	}

	path, err := findSource(destDir)
	if err != nil {
		RemovePartial(destDir)
		return models.FetchResult{}, &media.Error{Op: media.OpFetch, Kind: media.KindFailed, Detail: err.Error(), Err: err}
	}

	return models.FetchResult{Path: path, Title: f.title(ctx, url)}, nil
}

// title asks yt-dlp for the video title without downloading anything.
func (f *Fetcher) title(ctx context.Context, url string) string {
	res, err := media.Run(ctx, media.OpFetch, f.cfg.TitleTimeout, f.cfg.Binary,
		"--skip-download", "--no-playlist", "--no-warnings", "--print", "title", url)
	if err != nil {
		f.logger.Warn("title lookup failed", "url", url, "error", err)
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(res.Stdout)), "\n")
	return strings.TrimSpace(lines[0])
}

// DownloadArgs builds the yt-dlp argument list for a single-video download.
func DownloadArgs(url, destDir, format string) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"--no-part",
		"-f", format,
		"--merge-output-format", "mp4",
		"-o", filepath.Join(destDir, SourceBaseName+".%(ext)s"),
		"--", url,
	}
}

// RemovePartial deletes every source file (complete or not) in dir.
func RemovePartial(dir string) {
	matches, _ := filepath.Glob(filepath.Join(dir, SourceBaseName+".*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

func findSource(dir string) (string, error) {
	preferred := filepath.Join(dir, SourceBaseName+".mp4")
	if info, err := os.Stat(preferred); err == nil && info.Size() > 0 {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, SourceBaseName+".*"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Size() > 0 {
			return m, nil
		}
	}
	return "", errors.New("yt-dlp reported success but no source file was written")
}

var unsupportedMarkers = []string{
	"unsupported url",
	"is not a valid url",
	"no video formats found",
	"requested format is not available",
	"video unavailable",
	"private video",
}

var networkMarkers = []string{
	"unable to download",
	"http error",
	"urlopen error",
	"connection",
	"timed out",
	"name or service not known",
	"temporary failure in name resolution",
	"network is unreachable",
}

// classify refines a generic command failure into the fetch taxonomy.
func classify(err error) error {
	var me *media.Error
	if !errors.As(err, &me) {
		return &media.Error{Op: media.OpFetch, Kind: media.KindFailed, Detail: err.Error(), Err: err}
	}
	if me.Kind == media.KindTimeout {
		return me
	}

	lower := strings.ToLower(me.Detail)
	for _, m := range unsupportedMarkers {
		if strings.Contains(lower, m) {
			return &media.Error{Op: media.OpFetch, Kind: media.KindUnsupportedSource, Detail: me.Detail, Err: me.Err}
		}
	}
	for _, m := range networkMarkers {
		if strings.Contains(lower, m) {
			return &media.Error{Op: media.OpFetch, Kind: media.KindNetwork, Detail: me.Detail, Err: me.Err}
		}
	}
	return me
}

var _ models.SourceFetcher = (*Fetcher)(nil)
