package pipeline

import (
	"time"
)

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Tables     []TableResult `json:"tables"`

	// Err joins every table error. Nil when all tables succeeded.
	Err error `json:"-"`
}

// TableResult describes one raw table.
type TableResult struct {
	Table   string         `json:"table"`
	Outcome string         `json:"outcome"`
	RowsIn  int            `json:"rows_in"`
	Bytes   int64          `json:"bytes"`
	Outputs []OutputResult `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OutputResult describes one canonical frame produced from a raw table.
type OutputResult struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	// Failed lists publishers that did not accept the frame.
	Failed []string `json:"failed,omitempty"`
}

// Failed reports whether any table failed.
func (r *RunResult) Failed() bool {
	return r.Err != nil
}

// Table returns the result for a raw table name.
func (r *RunResult) Table(name string) (TableResult, bool) {
	for _, t := range r.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return TableResult{}, false
}

// PublishFailures counts outputs not accepted by at least one publisher.
func (r *RunResult) PublishFailures() int {
	n := 0
	for _, t := range r.Tables {
		for _, o := range t.Outputs {
			if len(o.Failed) > 0 {
				n++
			}
		}
	}
	return n
}
