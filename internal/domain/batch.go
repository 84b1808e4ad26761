package domain

import "time"

// BatchStatus is the lifecycle state of a batch run. A run is terminal once
// it leaves StatusRunning.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
	BatchFailed    BatchStatus = "failed"
)

// AccountStatus is the per-account state machine:
// pending -> processing -> completed | error.
type AccountStatus string

const (
	AccountPending    AccountStatus = "pending"
	AccountProcessing AccountStatus = "processing"
	AccountCompleted  AccountStatus = "completed"
	AccountError      AccountStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s AccountStatus) Terminal() bool {
	return s == AccountCompleted || s == AccountError
}

// BatchRun is the persisted record of one orchestrator invocation. It is
// owned and mutated exclusively by the orchestrator.
type BatchRun struct {
	ID            int64       `db:"id"`
	BatchID       string      `db:"batch_id"`
	StartDate     string      `db:"start_date"`
	EndDate       string      `db:"end_date"`
	Accounts      string      `db:"accounts"` // JSON array of display names
	Status        BatchStatus `db:"status"`
	TotalArticles int         `db:"total_articles"`
	CreatedAt     int64       `db:"created_at"`
	CompletedAt   int64       `db:"completed_at"`
}

// AccountOutcome is the transient per-account result of a batch run.
// Immutable once Status is terminal.
type AccountOutcome struct {
	AccountName   string
	Status        AccountStatus
	ArticlesFound int
	CurrentPage   int
	Err           error
}

// BatchOutcome aggregates a finished run.
type BatchOutcome struct {
	BatchID    string
	Status     BatchStatus
	Accounts   []AccountOutcome
	Articles   []Article
	ExportPath string
	Duration   time.Duration
}
