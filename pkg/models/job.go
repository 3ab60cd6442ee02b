package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle stage of a segmentation job.
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusDone        JobStatus = "done"
	JobStatusError       JobStatus = "error"
)

var validTransitions = map[JobStatus][]JobStatus{
	JobStatusQueued:      {JobStatusDownloading, JobStatusError},
	JobStatusDownloading: {JobStatusProcessing, JobStatusError},
	JobStatusProcessing:  {JobStatusDone, JobStatusError},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Clip describes one produced sub-clip. Immutable once appended to a Job.
type Clip struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Filename string  `json:"filename"`
}

// Job tracks one end-to-end segmentation request. The API returns job_id on POST /process;
// the client polls GET /jobs/{job_id} until status is done or error.
type Job struct {
	ID             uuid.UUID `json:"job_id"`
	Status         JobStatus `json:"status"`
	SourceURL      string    `json:"source_url"`
	ClipDuration   int       `json:"clip_duration"`
	TotalClips     int       `json:"total_clips"`
	CompletedClips int       `json:"completed_clips"`
	Clips          []Clip    `json:"clips"`
	Error          *string   `json:"error"`
	VideoTitle     string    `json:"video_title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsTerminal reports whether the job reached done or error.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}

// Clone returns a deep copy that shares no mutable state with j.
func (j *Job) Clone() Job {
	c := *j
	c.Clips = make([]Clip, len(j.Clips))
	copy(c.Clips, j.Clips)
	if j.Error != nil {
		msg := *j.Error
		c.Error = &msg
	}
	return c
}

// ClipAt returns the clip with the given plan index.
func (j *Job) ClipAt(index int) (Clip, bool) {
	for _, c := range j.Clips {
		if c.Index == index {
			return c, true
		}
	}
	return Clip{}, false
}

// JobRecord is the archived summary of a terminal job.
type JobRecord struct {
	ID             uuid.UUID  `db:"id"              json:"job_id"`
	Status         JobStatus  `db:"status"          json:"status"`
	SourceURL      string     `db:"source_url"      json:"source_url"`
	ClipDuration   int        `db:"clip_duration"   json:"clip_duration"`
	VideoTitle     string     `db:"video_title"     json:"video_title"`
	TotalClips     int        `db:"total_clips"     json:"total_clips"`
	CompletedClips int        `db:"completed_clips" json:"completed_clips"`
	ErrorMessage   *string    `db:"error_message"   json:"error,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	FinishedAt     *time.Time `db:"finished_at"     json:"finished_at,omitempty"`
}

// NewJobRecord summarizes a job for the archive.
func NewJobRecord(j Job) JobRecord {
	rec := JobRecord{
		ID:             j.ID,
		Status:         j.Status,
		SourceURL:      j.SourceURL,
		ClipDuration:   j.ClipDuration,
		VideoTitle:     j.VideoTitle,
		TotalClips:     j.TotalClips,
		CompletedClips: j.CompletedClips,
		ErrorMessage:   j.Error,
		CreatedAt:      j.CreatedAt,
	}
	if j.IsTerminal() {
		finished := j.UpdatedAt
		rec.FinishedAt = &finished
	}
	return rec
}
