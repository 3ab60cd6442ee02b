// Package segment plans how a source video is cut into fixed-length clips.
package segment

import "math"

const (
	// MaxClips bounds worst-case work per job regardless of source length.
	MaxClips = 20
	// MinClipSeconds is the shortest tail clip worth producing.
	MinClipSeconds = 5.0
)

// AllowedClipLengths lists the clip lengths, in seconds, a caller may request.
var AllowedClipLengths = []int{30, 60, 90}

// Segment is one planned clip window.
type Segment struct {
	Index  int
	Start  float64
	Length float64
}

// End returns the exclusive end offset of the segment.
func (s Segment) End() float64 {
	return s.Start + s.Length
}

// ValidClipLength reports whether seconds is one of AllowedClipLengths.
func ValidClipLength(seconds int) bool {
	for _, l := range AllowedClipLengths {
		if l == seconds {
			return true
		}
	}
	return false
}

// Plan splits duration into at most MaxClips windows of clipLength seconds.
// A trailing window shorter than MinClipSeconds is dropped, so the result may be
// empty for very short sources. Returns nil for a non-positive clipLength.
func Plan(duration float64, clipLength int) []Segment {
	if clipLength <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	length := float64(clipLength)

	n := int(math.Floor(duration / length))
	if n < 1 {
		n = 1
	}
	if n > MaxClips {
		n = MaxClips
	}

	plan := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * length
		plan = append(plan, Segment{
			Index:  i,
			Start:  start,
			Length: math.Min(length, duration-start),
		})
	}

	if last := plan[len(plan)-1]; last.Length < MinClipSeconds {
		plan = plan[:len(plan)-1]
	}
	return plan
}
