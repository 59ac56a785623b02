package repositories

import (
	"context"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("user profile not found")

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

func (repo *Profiles) GetByUserID(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := repo.db.WithContext(ctx).
		Preload("Experience").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (repo *Profiles) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

// ListMatchableUserIDs returns users that have both a profile and
// preferences, the precondition for batch matching.
func (repo *Profiles) ListMatchableUserIDs(ctx context.Context) ([]int64, error) {
	var userIDs []int64
	err := repo.db.WithContext(ctx).Model(&models.UserProfile{}).
		Joins("JOIN user_preferences ON user_preferences.user_id = user_profiles.user_id").
		Pluck("user_profiles.user_id", &userIDs).Error
	return userIDs, err
}

func (repo *Profiles) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return repo.db.WithContext(ctx).Save(profile).Error
}

func (repo *Profiles) SavePreferences(ctx context.Context, prefs *models.UserPreferences) error {
	return repo.db.WithContext(ctx).Save(prefs).Error
}
