package dto

import "encoding/json"

// SubmitResponse is returned with 202 Accepted when a submission saga
// commits. It echoes the sanitized filename back to the client.
type SubmitResponse struct {
	Message    string `json:"message"`
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	FileName   string `json:"file_name"`
	Timestamp  string `json:"timestamp"`
}

// HistoryItem is one entry of the newest-first history listing. Result is
// populated only for COMPLETED jobs.
type HistoryItem struct {
	AnalysisID   string          `json:"analysis_id"`
	Status       string          `json:"status"`
	AnalysisType string          `json:"analysis_type"`
	FileName     string          `json:"file_name"`
	CreatedAt    string          `json:"created_at"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// StatusResponse is the detail view of one job. Result and Error are
// mutually exclusive: Result for COMPLETED, Error for FAILED.
type StatusResponse struct {
	AnalysisID string          `json:"analysis_id"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// ErrorResponse carries the machine-readable kind of a failed request.
type ErrorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}
