package services

import (
	"context"
	"sync"
	"time"

	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/internal/repositories"
	"github.com/pkg/errors"
)

type textResponse struct {
	text string
	err  error
}

type mockGenerativeClient struct {
	mu             sync.Mutex
	responsesQueue []textResponse
	prompts        []string
}

func (m *mockGenerativeClient) GenerateText(_ context.Context, _, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if len(m.responsesQueue) == 0 {
		return "", errors.New("no responses left")
	}
	res := m.responsesQueue[0]
	m.responsesQueue = m.responsesQueue[1:]
	return res.text, res.err
}

type embedResponse struct {
	values []float32
	err    error
}

type mockEmbeddingClient struct {
	mu             sync.Mutex
	responsesQueue []embedResponse
	inputs         []string
}

func (m *mockEmbeddingClient) EmbedText(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, text)
	if len(m.responsesQueue) == 0 {
		return nil, errors.New("no responses left")
	}
	res := m.responsesQueue[0]
	m.responsesQueue = m.responsesQueue[1:]
	return res.values, res.err
}

type mockPostingStore struct {
	mu       sync.Mutex
	postings []models.JobPosting
	statuses map[uint]models.PostingStatus
	existing map[string]bool
	nextID   uint

	createErr error
	loadErr   error
}

func newMockPostingStore(postings ...models.JobPosting) *mockPostingStore {
	store := &mockPostingStore{
		postings: postings,
		statuses: map[uint]models.PostingStatus{},
		existing: map[string]bool{},
		nextID:   100,
	}
	for _, p := range postings {
		store.existing[p.URL] = true
	}
	return store
}

func (m *mockPostingStore) Create(_ context.Context, posting *models.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if m.existing[posting.URL] {
		return repositories.ErrDuplicateURL
	}

	m.nextID++
	posting.ID = m.nextID
	m.postings = append(m.postings, *posting)
	m.existing[posting.URL] = true
	return nil
}

func (m *mockPostingStore) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[url], nil
}

func (m *mockPostingStore) GetActiveSince(_ context.Context, since time.Time) ([]models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}

	var result []models.JobPosting
	for _, p := range m.postings {
		status, overridden := m.statuses[p.ID]
		if overridden {
			p.Status = status
		}
		if p.Status == models.PostingActive && !p.IngestedAt.Before(since) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPostingStore) GetByID(_ context.Context, id uint) (*models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.postings {
		if p.ID == id {
			if status, ok := m.statuses[id]; ok {
				p.Status = status
			}
			return &p, nil
		}
	}
	return nil, errors.New("posting not found")
}

func (m *mockPostingStore) UpdateStatus(_ context.Context, id uint, status models.PostingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = status
	return nil
}

func (m *mockPostingStore) created() []models.JobPosting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.JobPosting{}, m.postings...)
}

type mockRunLogStore struct {
	mu           sync.Mutex
	lastStatus   models.RunStatus
	totalScraped int
	processed    int
	errMsg       string
	createErr    error
}

func (m *mockRunLogStore) Create(_ context.Context, source string) (*models.ScrapeLog, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.ScrapeLog{ID: 1, Source: source, Status: models.RunPending}, nil
}

func (m *mockRunLogStore) MarkRunning(_ context.Context, _ uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastStatus = models.RunRunning
	return nil
}

func (m *mockRunLogStore) Finish(_ context.Context, _ uint, status models.RunStatus,
	totalScraped, processed int, errMsg string) error {

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastStatus = status
	m.totalScraped = totalScraped
	m.processed = processed
	m.errMsg = errMsg
	return nil
}

type mockWatermarkStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMockWatermarkStore() *mockWatermarkStore {
	return &mockWatermarkStore{values: map[string][]byte{}}
}

func (m *mockWatermarkStore) Save(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = data
	return nil
}

func (m *mockWatermarkStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[id], nil
}

type mockProfileStore struct {
	profiles    map[int64]*models.UserProfile
	preferences map[int64]*models.UserPreferences
}

func (m *mockProfileStore) GetByUserID(_ context.Context, userID int64) (*models.UserProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return profile, nil
}

func (m *mockProfileStore) GetPreferences(_ context.Context, userID int64) (*models.UserPreferences, error) {
	return m.preferences[userID], nil
}

func (m *mockProfileStore) ListMatchableUserIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id := range m.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockSimilaritySearcher struct {
	hits []repositories.SimilarPosting
	err  error
}

func (m *mockSimilaritySearcher) FindSimilar(_ context.Context, _ models.Vector,
	limit int, minScore float64) ([]repositories.SimilarPosting, error) {

	if m.err != nil {
		return nil, m.err
	}

	var hits []repositories.SimilarPosting
	for _, hit := range m.hits {
		if hit.Similarity >= minScore {
			hits = append(hits, hit)
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type mockMatchStore struct {
	mu      sync.Mutex
	matches []models.JobMatch
	flags   map[uint]models.MatchStatusUpdate
}

func newMockMatchStore() *mockMatchStore {
	return &mockMatchStore{flags: map[uint]models.MatchStatusUpdate{}}
}

func (m *mockMatchStore) CreateIfAbsent(_ context.Context, match *models.JobMatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.matches {
		if existing.UserID == match.UserID && existing.JobID == match.JobID {
			return false, nil
		}
	}
	match.ID = uint(len(m.matches) + 1)
	m.matches = append(m.matches, *match)
	return true, nil
}

func (m *mockMatchStore) GetByIDAndUser(_ context.Context, matchID uint, userID int64) (*models.JobMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, match := range m.matches {
		if match.ID == matchID && match.UserID == userID {
			return &match, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockMatchStore) UpdateFlags(_ context.Context, matchID uint, update models.MatchStatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[matchID] = update
	return nil
}
