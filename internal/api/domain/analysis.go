package domain

// Analysis job status constants
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Analysis type constants
const (
	TypeAudio = "AUDIO"
)

// User plan constants
const (
	PlanFree    = "FREE"
	PlanPremium = "PREMIUM"
)

// FreeDailyLimit is the number of submissions a FREE user may make per UTC day.
const FreeDailyLimit = 3

// AllowedExtensions lists the audio file extensions accepted for analysis.
var AllowedExtensions = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"m4a":  true,
	"flac": true,
	"ogg":  true,
}

// IsTerminal reports whether status is COMPLETED or FAILED.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
