package repositories

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/pkg/vectors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrDuplicateURL marks an insert rejected by the unique index on the source
// URL. Callers treat it as a benign duplicate.
var ErrDuplicateURL = errors.New("posting with this url already exists")

type Postings struct {
	db *gorm.DB
}

func NewPostingsRepository(db *gorm.DB) *Postings {
	return &Postings{db: db}
}

func (repo *Postings) Create(ctx context.Context, posting *models.JobPosting) error {
	err := repo.db.WithContext(ctx).Create(posting).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateURL
	}
	return err
}

func (repo *Postings) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("url = ?", url).
		Count(&count).Error
	return count > 0, err
}

func (repo *Postings) GetByID(ctx context.Context, id uint) (*models.JobPosting, error) {
	var posting models.JobPosting
	if err := repo.db.WithContext(ctx).First(&posting, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &posting, nil
}

// GetActiveSince returns active postings ingested after the given time,
// newest first.
func (repo *Postings) GetActiveSince(ctx context.Context, since time.Time) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := repo.db.WithContext(ctx).
		Where("status = ? AND ingested_at >= ?", models.PostingActive, since).
		Order("ingested_at DESC").
		Find(&postings).Error
	return postings, err
}

func (repo *Postings) UpdateStatus(ctx context.Context, id uint, status models.PostingStatus) error {
	return repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SimilarPosting is one nearest-neighbor search hit.
type SimilarPosting struct {
	Posting    models.JobPosting
	Similarity float64
}

// FindSimilar ranks active embeddable postings by cosine similarity against
// the query vector. Exact ranking over the stored corpus; postings with an
// empty embedding never appear in results.
func (repo *Postings) FindSimilar(ctx context.Context, embedding models.Vector, limit int, minScore float64) ([]SimilarPosting, error) {

	if embedding.IsEmpty() {
		return nil, nil
	}

	var postings []models.JobPosting
	err := repo.db.WithContext(ctx).
		Where("status = ? AND embedding <> ''", models.PostingActive).
		Find(&postings).Error
	if err != nil {
		return nil, err
	}

	var hits []SimilarPosting
	for _, posting := range postings {
		score := vectors.Cosine(embedding, posting.Embedding)
		if score >= minScore {
			hits = append(hits, SimilarPosting{Posting: posting, Similarity: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
