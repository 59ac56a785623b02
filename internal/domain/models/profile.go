package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// UserProfile holds the matchable representation of a user: a skill set, an
// experience history and a single profile embedding. Matching is skipped
// while the embedding is absent.
type UserProfile struct {
	ID         uint  `gorm:"primaryKey"`
	UserID     int64 `gorm:"uniqueIndex"`
	Skills     string
	Embedding  Vector              `gorm:"type:text"`
	Experience []ProfileExperience `gorm:"foreignKey:ProfileID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ProfileExperience struct {
	ID             uint `gorm:"primaryKey"`
	ProfileID      uint `gorm:"index"`
	Title          string
	Company        string
	DurationMonths int
	Description    string `gorm:"type:text"`
}

func (p *UserProfile) SkillsAsArray() []string {
	if p.Skills == "" {
		return []string{}
	}
	return lo.Map(strings.Split(p.Skills, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
}

// UserPreferences are pure filter criteria, no derived state.
type UserPreferences struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           int64 `gorm:"uniqueIndex"`
	DesiredRoles     string
	DesiredLocations string
	MinSalary        int
	AcceptsRemote    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *UserPreferences) RolesAsArray() []string {
	return splitCommaList(p.DesiredRoles)
}

func (p *UserPreferences) LocationsAsArray() []string {
	return splitCommaList(p.DesiredLocations)
}

func splitCommaList(s string) []string {
	if s == "" {
		return []string{}
	}
	return lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
}
