// Package media wraps the external processes that fetch, probe and transcode video.
//
// Adapters live in subpackages (ytdlp, ffprobe, ffmpeg) and satisfy the
// collaborator interfaces in pkg/models. Every adapter maps timeouts and
// non-zero exits onto *Error so the orchestrator never inspects raw exec errors.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	maxDetailBytes = 2000
	// waitDelay bounds how long Run waits for orphaned children to release the output pipes.
	waitDelay = 5 * time.Second
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout []byte
	Stderr string
}

// Run executes name with args under timeout. A deadline overrun is reported as
// KindTimeout; any other failure, including a non-zero exit, as KindFailed with
// the tail of stderr as detail. Callers refine Kind when they know better.
func Run(ctx context.Context, op Op, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: strings.TrimSpace(stderr.String())}
	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &Error{
			Op:     op,
			Kind:   KindTimeout,
			Detail: fmt.Sprintf("%s exceeded %s", name, timeout),
			Err:    ctx.Err(),
		}
	}

	detail := Tail(res.Stderr, maxDetailBytes)
	if detail == "" {
		detail = err.Error()
	}
	return res, &Error{Op: op, Kind: KindFailed, Detail: detail, Err: err}
}

// Tail returns at most the last n bytes of s, cut at a line boundary when possible.
func Tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return s
}

// FormatSeconds renders seconds the way ffmpeg expects them on the command line.
func FormatSeconds(sec float64) string {
	return fmt.Sprintf("%.3f", sec)
}
