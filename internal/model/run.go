package model

import "time"

// RunStatus represents the state of a batch sync run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// BatchRun is one recorded execution of the sync pipeline.
type BatchRun struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`
	Planned     int64      `json:"planned"`
	Succeeded   int64      `json:"succeeded"`
	Failed      int64      `json:"failed"`
	Copied      int64      `json:"copied"`
	Error       string     `json:"error,omitempty"`
}

// ArtifactResult is the recorded outcome of one artifact within a run.
type ArtifactResult struct {
	ID         string        `json:"id"`
	RunID      string        `json:"run_id"`
	Name       string        `json:"name"`
	State      ArtifactState `json:"state"`
	RecordsIn  int64         `json:"records_in"`
	RecordsOut int64         `json:"records_out"`
	Outputs    int64         `json:"outputs"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}
