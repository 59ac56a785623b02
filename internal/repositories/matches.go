package repositories

import (
	"context"

	"github.com/joblens/joblens/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Matches struct {
	db *gorm.DB
}

func NewMatchesRepository(db *gorm.DB) *Matches {
	return &Matches{db: db}
}

// CreateIfAbsent inserts the match unless one already exists for the same
// (user, job) pair. Returns true when a row was actually created.
func (repo *Matches) CreateIfAbsent(ctx context.Context, match *models.JobMatch) (bool, error) {
	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "job_id"}},
			DoNothing: true,
		}).
		Create(match)
	return result.RowsAffected > 0, result.Error
}

func (repo *Matches) GetByIDAndUser(ctx context.Context, matchID uint, userID int64) (*models.JobMatch, error) {
	var match models.JobMatch
	err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", matchID, userID).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (repo *Matches) GetByUser(ctx context.Context, userID int64, limit int) ([]models.JobMatch, error) {
	var matches []models.JobMatch
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("score DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

// UpdateFlags applies a partial update of the engagement flags.
func (repo *Matches) UpdateFlags(ctx context.Context, matchID uint, update models.MatchStatusUpdate) error {

	fields := map[string]any{}
	if update.IsViewed != nil {
		fields["is_viewed"] = *update.IsViewed
	}
	if update.IsSaved != nil {
		fields["is_saved"] = *update.IsSaved
	}
	if update.IsApplied != nil {
		fields["is_applied"] = *update.IsApplied
	}
	if len(fields) == 0 {
		return nil
	}

	return repo.db.WithContext(ctx).Model(&models.JobMatch{}).
		Where("id = ?", matchID).
		Updates(fields).Error
}

func (repo *Matches) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.JobMatch{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
