package domain

// Analysis job status constants, mirroring the API-side lifecycle.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Job is the worker's view of a ticket: just enough to drive the state
// machine.
type Job struct {
	AnalysisID   string
	UserID       string
	Status       string
	AnalysisType string
	StorageKey   string
}

// TaskMessage is one dequeued task. DeliveryTag is the broker handle used
// for the acknowledgment.
type TaskMessage struct {
	AnalysisID  string `json:"analysis_id"`
	DeliveryTag uint64 `json:"-"`
}

// IsTerminal reports whether status is COMPLETED or FAILED.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
