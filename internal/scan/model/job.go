package model

import "time"

// ScanStatus describes the lifecycle state of a scan job.
type ScanStatus string

var (
	ScanPending   ScanStatus = "pending"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanStopped   ScanStatus = "stopped"
)

// Terminal reports whether the status can no longer change.
func (s ScanStatus) Terminal() bool {
	switch s {
	case ScanCompleted, ScanFailed, ScanStopped:
		return true
	}
	return false
}

// ScanJob captures the immutable submission parameters of a scan plus
// its current status. Mutated only by the orchestrator that owns it.
type ScanJob struct {
	ID           string        `json:"scan_id"`
	StartBlock   uint64        `json:"start_block"`
	EndBlock     uint64        `json:"end_block"`
	AddressTypes []AddressType `json:"address_types"`
	Status       ScanStatus    `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at,omitempty"`
}

// TotalBlocks returns the number of blocks in the inclusive scan range.
func (j ScanJob) TotalBlocks() uint64 {
	return j.EndBlock - j.StartBlock + 1
}

// WantsType reports whether the job asked for the given address family.
func (j ScanJob) WantsType(t AddressType) bool {
	for _, at := range j.AddressTypes {
		if at == t {
			return true
		}
	}
	return false
}
