package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/joblens/joblens/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {

	entities := []any{
		models.JobPosting{},
		models.UserProfile{},
		models.ProfileExperience{},
		models.UserPreferences{},
		models.JobMatch{},
		models.ScrapeLog{},
		models.ArbitraryData{},
	}

	for _, entity := range entities {
		if err := c.DB.AutoMigrate(entity); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", entity, err)
		}
	}

	// The unique indexes are the real duplicate-prevention backstop; the
	// application-level existence checks are an optimization only.
	if err := c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_url ON job_postings (url); " +
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_job ON job_matches (user_id, job_id);").
		Error; err != nil {
		return fmt.Errorf("failed to create unique indexes: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
