package repositories

import (
	"context"
	"testing"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func Test_Matches_CreateIfAbsent(t *testing.T) {
	defer clearDb()

	repo := NewMatchesRepository(dbCtx.DB)

	created, err := repo.CreateIfAbsent(context.Background(), &models.JobMatch{
		UserID: 42, JobID: 1, Score: 80, Reason: "good fit",
	})
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), &models.JobMatch{
		UserID: 42, JobID: 1, Score: 90, Reason: "rescored",
	})
	assert.NoError(t, err)
	assert.False(t, created)

	count, err := repo.CountByUser(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// the original row wins
	matches, err := repo.GetByUser(context.Background(), 42, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, 80.0, matches[0].Score)
}

func Test_Matches_SameJobForDifferentUsers(t *testing.T) {
	defer clearDb()

	repo := NewMatchesRepository(dbCtx.DB)

	created, err := repo.CreateIfAbsent(context.Background(), &models.JobMatch{UserID: 1, JobID: 1})
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), &models.JobMatch{UserID: 2, JobID: 1})
	assert.NoError(t, err)
	assert.True(t, created)
}

func Test_Matches_GetByUser_OrderedByScore(t *testing.T) {
	defer clearDb()

	repo := NewMatchesRepository(dbCtx.DB)

	_, err := repo.CreateIfAbsent(context.Background(), &models.JobMatch{UserID: 42, JobID: 1, Score: 30})
	assert.NoError(t, err)
	_, err = repo.CreateIfAbsent(context.Background(), &models.JobMatch{UserID: 42, JobID: 2, Score: 90})
	assert.NoError(t, err)
	_, err = repo.CreateIfAbsent(context.Background(), &models.JobMatch{UserID: 7, JobID: 3, Score: 99})
	assert.NoError(t, err)

	matches, err := repo.GetByUser(context.Background(), 42, 10)

	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, uint(2), matches[0].JobID)
	assert.Equal(t, uint(1), matches[1].JobID)
}

func Test_Matches_UpdateFlags_PartialUpdate(t *testing.T) {
	defer clearDb()

	repo := NewMatchesRepository(dbCtx.DB)

	match := &models.JobMatch{UserID: 42, JobID: 1, IsSaved: true}
	_, err := repo.CreateIfAbsent(context.Background(), match)
	assert.NoError(t, err)

	viewed := true
	err = repo.UpdateFlags(context.Background(), match.ID, models.MatchStatusUpdate{IsViewed: &viewed})
	assert.NoError(t, err)

	loaded, err := repo.GetByIDAndUser(context.Background(), match.ID, 42)
	assert.NoError(t, err)
	assert.True(t, loaded.IsViewed)
	assert.True(t, loaded.IsSaved)
	assert.False(t, loaded.IsApplied)
}

func Test_Matches_GetByIDAndUser_EnforcesOwnership(t *testing.T) {
	defer clearDb()

	repo := NewMatchesRepository(dbCtx.DB)

	match := &models.JobMatch{UserID: 42, JobID: 1}
	_, err := repo.CreateIfAbsent(context.Background(), match)
	assert.NoError(t, err)

	_, err = repo.GetByIDAndUser(context.Background(), match.ID, 99)
	assert.Error(t, err)
}
