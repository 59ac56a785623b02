package models

import "time"

type PostingStatus string

const (
	PostingActive   PostingStatus = "active"
	PostingInactive PostingStatus = "inactive"
)

// JobPosting is a normalized external job ad. The source URL is the natural
// key; postings are retired by status flip, never deleted.
type JobPosting struct {
	ID          uint   `gorm:"primaryKey"`
	URL         string `gorm:"column:url;uniqueIndex:idx_postings_url"`
	Title       string
	Company     string
	Location    string
	Description string `gorm:"type:text"`
	Summary     string `gorm:"type:text"`
	Embedding   Vector `gorm:"type:text"`
	Source      string
	Remote      bool
	Status      PostingStatus `gorm:"index"`
	PublishedAt time.Time
	IngestedAt  time.Time
	CreatedAt   time.Time
}

// RawPosting is a posting as returned by an external job source, before
// rewriting and embedding.
type RawPosting struct {
	URL         string
	Title       string
	Company     string
	Location    string
	Description string
	Remote      bool
	PublishedAt time.Time
}

// DuplicateCandidate is the result of comparing a posting against one stored
// posting. It is consumed immediately and never persisted.
type DuplicateCandidate struct {
	JobID  uint
	Score  float64
	Reason string
}
