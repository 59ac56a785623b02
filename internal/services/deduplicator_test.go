package services

import (
	"context"
	"testing"
	"time"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func activePosting(id uint, title, company, summary string, age time.Duration) models.JobPosting {
	return models.JobPosting{
		ID:         id,
		Title:      title,
		Company:    company,
		Summary:    summary,
		Status:     models.PostingActive,
		IngestedAt: time.Now().Add(-age),
	}
}

func Test_FindDuplicates_IdenticalPostingScoresOne(t *testing.T) {
	store := newMockPostingStore(
		activePosting(1, "Golang Developer", "Acme Corp", "Build backend services in Go", time.Hour),
	)
	dedup := NewDeduplicator(store, 0.85, 30)

	candidates, err := dedup.FindDuplicates(context.Background(),
		"Golang Developer", "Acme Corp", "Build backend services in Go")

	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, uint(1), candidates[0].JobID)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
	assert.Equal(t, "same company and title", candidates[0].Reason)
}

func Test_FindDuplicates_UnrelatedPostingIgnored(t *testing.T) {
	store := newMockPostingStore(
		activePosting(1, "Frontend Engineer", "Other GmbH", "React and TypeScript work", time.Hour),
	)
	dedup := NewDeduplicator(store, 0.85, 30)

	candidates, err := dedup.FindDuplicates(context.Background(),
		"Golang Developer", "Acme Corp", "Build backend services in Go")

	assert.NoError(t, err)
	assert.Empty(t, candidates)
}

func Test_FindDuplicates_OrderedByDescendingScore(t *testing.T) {
	store := newMockPostingStore(
		activePosting(1, "Golang Developer", "Acme Corp", "Build backend services with Kubernetes", time.Hour),
		activePosting(2, "Golang Developer", "Acme Corp", "Build backend services in Go", 2*time.Hour),
	)
	dedup := NewDeduplicator(store, 0.5, 30)

	candidates, err := dedup.FindDuplicates(context.Background(),
		"Golang Developer", "Acme Corp", "Build backend services in Go")

	assert.NoError(t, err)
	assert.Len(t, candidates, 2)
	assert.Equal(t, uint(2), candidates[0].JobID)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
}

func Test_FindDuplicates_OutsideWindowIgnored(t *testing.T) {
	store := newMockPostingStore(
		activePosting(1, "Golang Developer", "Acme Corp", "Build backend services in Go", 40*24*time.Hour),
	)
	dedup := NewDeduplicator(store, 0.85, 30)

	candidates, err := dedup.FindDuplicates(context.Background(),
		"Golang Developer", "Acme Corp", "Build backend services in Go")

	assert.NoError(t, err)
	assert.Empty(t, candidates)
}

func Test_SetThreshold_Clamps(t *testing.T) {
	dedup := NewDeduplicator(newMockPostingStore(), -0.5, 30)
	assert.Equal(t, 0.0, dedup.Threshold())

	dedup.SetThreshold(1.5)
	assert.Equal(t, 1.0, dedup.Threshold())

	dedup.SetThreshold(0.85)
	assert.Equal(t, 0.85, dedup.Threshold())
}

func Test_MarkAsDuplicate_RetiresPosting(t *testing.T) {
	store := newMockPostingStore(
		activePosting(1, "Golang Developer", "Acme Corp", "summary", time.Hour),
		activePosting(2, "Golang Developer", "Acme Corp", "summary", 2*time.Hour),
	)
	dedup := NewDeduplicator(store, 0.85, 30)

	err := dedup.MarkAsDuplicate(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, models.PostingInactive, store.statuses[2])
}

func Test_MarkAsDuplicate_AlreadyRetiredIsNoOp(t *testing.T) {
	retired := activePosting(2, "Golang Developer", "Acme Corp", "summary", time.Hour)
	retired.Status = models.PostingInactive

	store := newMockPostingStore(retired)
	dedup := NewDeduplicator(store, 0.85, 30)

	err := dedup.MarkAsDuplicate(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Empty(t, store.statuses)
}

func Test_CleanupDuplicates_KeepsNewestOccurrence(t *testing.T) {
	// GetActiveSince returns newest first, so the older duplicate follows.
	store := newMockPostingStore(
		activePosting(2, "Golang Developer", "Acme Corp", "Build backend services in Go", time.Hour),
		activePosting(1, "Golang Developer", "Acme Corp", "Build backend services in Go", 48*time.Hour),
		activePosting(3, "Data Scientist", "Other GmbH", "Python and machine learning", 3*time.Hour),
	)
	dedup := NewDeduplicator(store, 0.85, 30)

	retired, err := dedup.CleanupDuplicates(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, retired)
	assert.Equal(t, models.PostingInactive, store.statuses[1])
	assert.NotContains(t, store.statuses, uint(2))
	assert.NotContains(t, store.statuses, uint(3))
}
