package domain

// EventType tags the batch event union.
type EventType string

const (
	EventProgress       EventType = "progress"
	EventAccountStatus  EventType = "account_status"
	EventBatchCompleted EventType = "batch_completed"
	EventError          EventType = "error"
)

// Event is one entry in the batch event stream. Exactly one of the payload
// groups is meaningful per Type; subscribers switch on Type.
type Event struct {
	Type    EventType `json:"type"`
	BatchID string    `json:"batch_id"`

	// EventProgress
	CompletedAccounts int `json:"completed_accounts,omitempty"`
	TotalAccounts     int `json:"total_accounts,omitempty"`

	// EventAccountStatus, EventError
	AccountName   string        `json:"account_name,omitempty"`
	Status        AccountStatus `json:"status,omitempty"`
	ArticlesFound int           `json:"articles_found,omitempty"`
	CurrentPage   int           `json:"current_page,omitempty"`
	Message       string        `json:"message,omitempty"`

	// EventBatchCompleted
	TotalArticles int `json:"total_articles,omitempty"`
}
