package repositories

import (
	"context"
	"time"

	"github.com/joblens/joblens/internal/domain/models"
	"gorm.io/gorm"
)

type ScrapeLogs struct {
	db *gorm.DB
}

func NewScrapeLogsRepository(db *gorm.DB) *ScrapeLogs {
	return &ScrapeLogs{db: db}
}

func (repo *ScrapeLogs) Create(ctx context.Context, source string) (*models.ScrapeLog, error) {
	logRecord := &models.ScrapeLog{
		Source:    source,
		Status:    models.RunPending,
		StartedAt: time.Now(),
	}
	if err := repo.db.WithContext(ctx).Create(logRecord).Error; err != nil {
		return nil, err
	}
	return logRecord, nil
}

func (repo *ScrapeLogs) MarkRunning(ctx context.Context, id uint) error {
	return repo.db.WithContext(ctx).Model(&models.ScrapeLog{}).
		Where("id = ?", id).
		Update("status", models.RunRunning).Error
}

func (repo *ScrapeLogs) Finish(ctx context.Context, id uint, status models.RunStatus,
	totalScraped, processed int, errMsg string) error {

	now := time.Now()
	return repo.db.WithContext(ctx).Model(&models.ScrapeLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          status,
			"finished_at":     &now,
			"total_scraped":   totalScraped,
			"processed_count": processed,
			"error":           errMsg,
		}).Error
}

func (repo *ScrapeLogs) GetByID(ctx context.Context, id uint) (*models.ScrapeLog, error) {
	var logRecord models.ScrapeLog
	if err := repo.db.WithContext(ctx).First(&logRecord, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &logRecord, nil
}
