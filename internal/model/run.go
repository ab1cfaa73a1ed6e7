package model

import "time"

// RunStatus tracks the lifecycle of a batch-processing run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the batch orchestrator, as recorded in the
// run journal.
type Run struct {
	ID        string      `json:"id"`
	InputPath string      `json:"input_path"`
	Status    RunStatus   `json:"status"`
	Counters  RunCounters `json:"counters"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunCounters aggregates per-run totals. Owned by the orchestrator's run
// state and snapshotted into the journal; never process-wide globals.
type RunCounters struct {
	WorkItems       int `json:"work_items"`
	Processed       int `json:"processed"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
	SessionsOpened  int `json:"sessions_opened"`
	BackendSwitches int `json:"backend_switches"`
}

// BatchRecord is the journal row for one batch within a run.
type BatchRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Index     int       `json:"index"`
	Size      int       `json:"size"`
	Backend   string    `json:"backend"`
	Status    RunStatus `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// LookupRecord is the journal row for one completed lookup.
type LookupRecord struct {
	ID          string       `json:"id"`
	RunID       string       `json:"run_id"`
	BatchIndex  int          `json:"batch_index"`
	RecordID    int          `json:"record_id"`
	Group       FieldGroup   `json:"field_group"`
	SubjectName string       `json:"subject_name"`
	Status      LookupStatus `json:"status"`
	PhoneCount  int          `json:"phone_count"`
	CreatedAt   time.Time    `json:"created_at"`
}
