package executor

import "time"

// QuickTestStats records the subsampling applied when quick-test mode
// is active.
type QuickTestStats struct {
	OriginalSamples int    `json:"original_samples"`
	SelectedSamples int    `json:"selected_samples"`
	Strategy        string `json:"strategy"`
}

// Stats aggregates execution counters. TasksExecuted counts attempts
// that completed or earned a retry, so a task that fails once and then
// succeeds contributes two; the attempt that exhausts a task's retry
// budget is tallied in TasksFailed instead.
type Stats struct {
	TasksExecuted  int             `json:"tasks_executed"`
	TasksSucceeded int             `json:"tasks_succeeded"`
	TasksFailed    int             `json:"tasks_failed"`
	StartTime      time.Time       `json:"start_time"`
	QuickTest      *QuickTestStats `json:"quick_test,omitempty"`
}
