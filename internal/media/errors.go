package media

import (
	"errors"
	"fmt"
)

// Op names the collaborator call that failed.
type Op string

const (
	OpFetch     Op = "fetch"
	OpProbe     Op = "probe"
	OpTranscode Op = "transcode"
)

// Kind classifies a collaborator failure.
type Kind string

const (
	KindNetwork           Kind = "network"
	KindUnsupportedSource Kind = "unsupported_source"
	KindTimeout           Kind = "timeout"
	KindFailed            Kind = "failed"
)

// ErrTimeout is matched by every Error whose Kind is KindTimeout.
var ErrTimeout = errors.New("external command timed out")

// Error is returned by every collaborator adapter. It is recovered inside the
// owning job's worker and never escapes as a process-level failure.
type Error struct {
	Op     Op
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed (%s)", e.Op, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTimeout) match timeouts from any collaborator.
func (e *Error) Is(target error) bool {
	return target == ErrTimeout && e.Kind == KindTimeout
}

// KindOf returns the Kind of a collaborator error, or "" for other errors.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}
