package model

import "time"

// LogLevel classifies a progress log entry.
type LogLevel string

var (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogSuccess LogLevel = "success"
)

// LogEntry is one line of the per-scan activity log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// ScanProgress is a consistent snapshot of a running scan. The
// orchestrator is the single writer; readers always receive a copy.
type ScanProgress struct {
	ScanID                 string     `json:"scan_id"`
	Status                 ScanStatus `json:"status"`
	CurrentBlock           uint64     `json:"current_block"`
	BlocksScanned          uint64     `json:"blocks_scanned"`
	TotalBlocks            uint64     `json:"total_blocks"`
	SignaturesFound        uint64     `json:"signatures_found"`
	RReusePairs            uint64     `json:"r_reuse_pairs"`
	KeysRecovered          uint64     `json:"keys_recovered"`
	ProgressPercentage     float64    `json:"progress_percentage"`
	BlocksPerMinute        float64    `json:"blocks_per_minute"`
	EstimatedTimeRemaining string     `json:"estimated_time_remaining"`
	APICallsMade           uint64     `json:"api_calls_made"`
	ErrorsEncountered      uint64     `json:"errors_encountered"`
	SkippedInputs          uint64     `json:"skipped_inputs"`
	Logs                   []LogEntry `json:"logs"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
