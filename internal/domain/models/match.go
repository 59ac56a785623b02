package models

import "time"

// JobMatch is the scored association between one user and one posting.
// At most one row exists per (user, job) pair; rows are never deleted so the
// history of what was shown to the user is preserved.
type JobMatch struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex:idx_user_job"`
	JobID     uint  `gorm:"uniqueIndex:idx_user_job"`
	Score     float64
	Reason    string
	IsViewed  bool
	IsSaved   bool
	IsApplied bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchStatusUpdate carries a partial update of the engagement flags.
// Nil fields are left untouched.
type MatchStatusUpdate struct {
	IsViewed  *bool
	IsSaved   *bool
	IsApplied *bool
}

func (u MatchStatusUpdate) IsEmpty() bool {
	return u.IsViewed == nil && u.IsSaved == nil && u.IsApplied == nil
}
