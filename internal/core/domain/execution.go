package domain

import "time"

// RunID identifies one execution run. Ids are issued in strictly increasing
// order, so a greater RunID is a more recent run.
type RunID int64

// After reports whether r was issued after other.
func (r RunID) After(other RunID) bool {
	return r > other
}

type ExecutionStatus string

const (
	ExecutionStatusInQueue   ExecutionStatus = "INQUEUE"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusFinished  ExecutionStatus = "FINISHED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// Execution is one row of a dataset's execution history.
type Execution struct {
	RunID            RunID           `json:"run_id"            db:"id"`
	DatasetID        string          `json:"dataset_id"        db:"dataset_id"`
	PluginType       PluginType      `json:"plugin_type"       db:"plugin_type"`
	Status           ExecutionStatus `json:"status"            db:"status"`
	RecordsProcessed int64           `json:"records_processed" db:"records_processed"`
	Error            string          `json:"error,omitempty"   db:"error_msg"`
	StartedAt        time.Time       `json:"started_at"        db:"started_at"`
	FinishedAt       *time.Time      `json:"finished_at"       db:"finished_at"`
}

// Outcome is the result of processing one dataset for one plugin type
// during one run.
type Outcome struct {
	Category  PluginType `json:"category"`
	DatasetID string     `json:"dataset_id"`
	RunID     RunID      `json:"run_id"`
	Payload   Execution  `json:"payload"`
}

// OutcomeFromExecution builds the outcome an execution history row represents.
func OutcomeFromExecution(e Execution) Outcome {
	return Outcome{
		Category:  e.PluginType,
		DatasetID: e.DatasetID,
		RunID:     e.RunID,
		Payload:   e,
	}
}
