package domain

import "time"

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether a job in this status never changes again.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DetectionParameters tune the boundary extractor. Zero values mean
// "use the default"; WithDefaults resolves them.
type DetectionParameters struct {
	MinArea         int     `json:"min_area"`
	MaxArea         int     `json:"max_area"`
	EpsilonFactor   float64 `json:"epsilon_factor"`
	ThresholdWindow int     `json:"threshold_window,omitempty"`
	ThresholdBias   int     `json:"threshold_bias,omitempty"`
}

const (
	DefaultMinArea         = 1000
	DefaultMaxArea         = 1000000
	DefaultEpsilonFactor   = 0.01
	DefaultThresholdWindow = 11
	DefaultThresholdBias   = 2
)

func (p DetectionParameters) WithDefaults() DetectionParameters {
	out := p
	if out.MinArea <= 0 {
		out.MinArea = DefaultMinArea
	}
	if out.MaxArea <= 0 {
		out.MaxArea = DefaultMaxArea
	}
	if out.EpsilonFactor <= 0 {
		out.EpsilonFactor = DefaultEpsilonFactor
	}
	if out.ThresholdWindow <= 0 {
		out.ThresholdWindow = DefaultThresholdWindow
	}
	if out.ThresholdBias <= 0 {
		out.ThresholdBias = DefaultThresholdBias
	}
	return out
}

// JobError is the terminal failure record exposed to status readers.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DetectionJob maps one uploaded floor plan to one detection outcome.
// Pending is the initial state; Completed and Failed are terminal. Rooms are
// present only on a completed job, Error only on a failed one. Attempt counts
// claimed executions and is bumped on every Pending -> Processing transition.
type DetectionJob struct {
	ID        string              `json:"jobId"`
	SourceRef string              `json:"sourceRef"`
	Params    DetectionParameters `json:"params"`
	Status    JobStatus           `json:"status"`
	Rooms     []Room              `json:"rooms,omitempty"`
	Error     *JobError           `json:"error,omitempty"`
	Attempt   int                 `json:"attempt"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// UploadSignal is the trigger payload delivered when a source image becomes
// available. Delivery is at-least-once and may be duplicated or reordered.
type UploadSignal struct {
	JobID     string `json:"job_id"`
	SourceRef string `json:"source_ref"`
}
