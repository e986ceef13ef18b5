package model

import "time"

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Stage names a pipeline stage recorded in the run log.
type Stage string

const (
	StageBuild  Stage = "build"
	StageDedup  Stage = "dedup"
	StageExport Stage = "export"
)

// StageCounts holds the diagnostic row counts of one source through assembly.
type StageCounts struct {
	Source        SourceName `json:"source"`
	PreFilter     int        `json:"pre_filter"`
	PostMetadata  int        `json:"post_metadata"`
	PostRegex     int        `json:"post_regex"`
	YearUnparsed  int        `json:"year_unparsed"`
	RegexRejected int        `json:"regex_rejected"`
}

// Run is one entry of the run log.
type Run struct {
	ID          string         `json:"id"`
	Stage       Stage          `json:"stage"`
	Status      RunStatus      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Rows        int64          `json:"rows"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
