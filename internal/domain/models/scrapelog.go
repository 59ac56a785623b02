package models

import "time"

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScrapeLog is the durable audit record of one ingestion run.
type ScrapeLog struct {
	ID             uint `gorm:"primaryKey"`
	Source         string
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	TotalScraped   int
	ProcessedCount int
	Error          string `gorm:"type:text"`
	CreatedAt      time.Time
}

// ArbitraryData is a generic id -> bytes row used for small pieces of state
// that do not deserve their own table, such as per-source ingestion
// watermarks.
type ArbitraryData struct {
	ID    string `gorm:"primaryKey"`
	Value []byte
}
