package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/internal/logger"
	"github.com/joblens/joblens/internal/metrics"
	"github.com/joblens/joblens/internal/text"
	log "github.com/sirupsen/logrus"
)

const (
	companyWeight     = 0.40
	titleWeight       = 0.35
	descriptionWeight = 0.25

	// Reason cutoffs, applied in priority order.
	nearIdenticalScore = 0.92

	// Upper bound on postings considered by one cleanup pass. The trailing
	// window already bounds the set; this caps the quadratic scan when a
	// window is unusually busy.
	maxCleanupBatch = 2000
)

type dedupRepository interface {
	GetActiveSince(ctx context.Context, since time.Time) ([]models.JobPosting, error)
	GetByID(ctx context.Context, id uint) (*models.JobPosting, error)
	UpdateStatus(ctx context.Context, id uint, status models.PostingStatus) error
}

// Deduplicator detects near-identical postings with a weighted token-set
// Jaccard similarity over company, title and description. Detection is
// approximate by design and tuned through the threshold.
type Deduplicator struct {
	postings  dedupRepository
	threshold float64
	window    time.Duration
}

func NewDeduplicator(postings dedupRepository, threshold float64, windowDays int) *Deduplicator {
	d := &Deduplicator{
		postings: postings,
		window:   time.Duration(windowDays) * 24 * time.Hour,
	}
	d.SetThreshold(threshold)
	return d
}

// SetThreshold clamps the duplicate threshold into [0, 1].
func (d *Deduplicator) SetThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	d.threshold = threshold
}

func (d *Deduplicator) Threshold() float64 {
	return d.threshold
}

// FindDuplicates compares the given fields against active postings ingested
// within the trailing window and returns candidates at or above the
// threshold, ordered by descending score.
func (d *Deduplicator) FindDuplicates(ctx context.Context, title, company, description string) ([]models.DuplicateCandidate, error) {

	stored, err := d.postings.GetActiveSince(ctx, time.Now().Add(-d.window))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent postings: %w", err)
	}

	incoming := postingTokens(title, company, description)

	var candidates []models.DuplicateCandidate
	for _, posting := range stored {
		existing := postingTokens(posting.Title, posting.Company, posting.Summary)
		score := weightedSimilarity(incoming, existing)
		if score >= d.threshold {
			candidates = append(candidates, models.DuplicateCandidate{
				JobID:  posting.ID,
				Score:  score,
				Reason: duplicateReason(incoming, existing, score),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// MarkAsDuplicate retires the duplicate posting in favor of the original.
// Marking an already retired posting is a no-op.
func (d *Deduplicator) MarkAsDuplicate(ctx context.Context, originalID, duplicateID uint) error {

	duplicate, err := d.postings.GetByID(ctx, duplicateID)
	if err != nil {
		return fmt.Errorf("failed to load posting %v: %w", duplicateID, err)
	}

	if duplicate.Status == models.PostingInactive {
		return nil
	}

	if err := d.postings.UpdateStatus(ctx, duplicateID, models.PostingInactive); err != nil {
		return fmt.Errorf("failed to retire posting %v: %w", duplicateID, err)
	}

	metrics.RetiredDuplicatesCounter.Inc()
	log.Infof("posting %v retired as duplicate of %v", duplicateID, originalID)
	return nil
}

// CleanupDuplicates scans active postings in the trailing window newest
// first and retires the older member of every duplicate pair, keeping the
// most recent occurrence. Quadratic over the window by design; the batch
// runs on a schedule, not interactively.
func (d *Deduplicator) CleanupDuplicates(ctx context.Context) (int, error) {

	postings, err := d.postings.GetActiveSince(ctx, time.Now().Add(-d.window))
	if err != nil {
		return 0, fmt.Errorf("failed to load recent postings: %w", err)
	}

	if len(postings) > maxCleanupBatch {
		postings = postings[:maxCleanupBatch]
	}

	tokens := make([]fieldTokens, len(postings))
	for i, posting := range postings {
		tokens[i] = postingTokens(posting.Title, posting.Company, posting.Summary)
	}

	retired := 0
	for i := 1; i < len(postings); i++ {
		for j := 0; j < i; j++ {
			if weightedSimilarity(tokens[i], tokens[j]) < d.threshold {
				continue
			}

			if err := d.postings.UpdateStatus(ctx, postings[i].ID, models.PostingInactive); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
					Errorf("failed to retire duplicate posting %v: %v", postings[i].ID, err)
			} else {
				retired++
				metrics.RetiredDuplicatesCounter.Inc()
			}
			break
		}
	}

	return retired, nil
}

type fieldTokens struct {
	title       map[string]struct{}
	company     map[string]struct{}
	description map[string]struct{}
}

func postingTokens(title, company, description string) fieldTokens {
	return fieldTokens{
		title:       text.TokenSet(title),
		company:     text.TokenSet(company),
		description: text.TokenSet(description),
	}
}

func weightedSimilarity(a, b fieldTokens) float64 {
	return companyWeight*text.Jaccard(a.company, b.company) +
		titleWeight*text.Jaccard(a.title, b.title) +
		descriptionWeight*text.Jaccard(a.description, b.description)
}

func duplicateReason(a, b fieldTokens, score float64) string {
	switch {
	case text.Equal(a.company, b.company) && text.Equal(a.title, b.title):
		return "same company and title"
	case score >= nearIdenticalScore:
		return "near-identical posting"
	default:
		return fmt.Sprintf("high overall similarity (%.2f)", score)
	}
}
