package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/joblens/joblens/internal/config"
	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/internal/events"
	"github.com/joblens/joblens/internal/logger"
	"github.com/joblens/joblens/internal/metrics"
	"github.com/joblens/joblens/internal/repositories"
	"github.com/joblens/joblens/internal/text"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Composite score weights. They sum to 1; the final score is clamped anyway
// so rounding can never push a match outside [0, 100].
const (
	similarityWeight = 0.60
	skillsWeight     = 0.25
	experienceWeight = 0.10
	preferenceWeight = 0.05

	maxReasonLength = 100
)

var (
	ErrProfileIncomplete = errors.New("user profile has no embedding")
	ErrMatchNotFound     = errors.New("match not found for this user")
	ErrEmptyStatusUpdate = errors.New("status update has no fields")
)

const reasonInstruction = "You explain job matches. Given a candidate summary and a job posting, " +
	"answer with one sentence of at most 100 characters saying why the job fits. " +
	"No preamble, no quotes."

type profileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserProfile, error)
	GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error)
	ListMatchableUserIDs(ctx context.Context) ([]int64, error)
}

type similaritySearcher interface {
	FindSimilar(ctx context.Context, embedding models.Vector, limit int, minScore float64) ([]repositories.SimilarPosting, error)
}

type matchRepository interface {
	CreateIfAbsent(ctx context.Context, match *models.JobMatch) (bool, error)
	GetByIDAndUser(ctx context.Context, matchID uint, userID int64) (*models.JobMatch, error)
	UpdateFlags(ctx context.Context, matchID uint, update models.MatchStatusUpdate) error
}

// MatchCriteria is the per-call configuration of the matching engine. It is
// passed explicitly into every call; the engine itself keeps no criteria
// state between calls.
type MatchCriteria struct {
	MaxMatches       int     `validate:"gte=1,lte=500"`
	MinSimilarity    float64 `validate:"gte=-1,lte=1"`
	FilterByLocation bool
	FilterByRole     bool
}

func DefaultCriteria(cfg config.MatchConfig) MatchCriteria {
	return MatchCriteria{
		MaxMatches:       cfg.MaxMatchesPerUser,
		MinSimilarity:    cfg.MinSimilarityScore,
		FilterByLocation: true,
		FilterByRole:     true,
	}
}

// BatchMatchResult aggregates one batch run. Users without a profile
// embedding are skipped silently, they are neither processed nor errors.
type BatchMatchResult struct {
	UsersProcessed int
	MatchesCreated int
	Errors         []string
}

// Matcher ranks stored postings against a user's profile embedding and
// persists the scored results.
type Matcher struct {
	profiles profileRepository
	postings similaritySearcher
	matches  matchRepository
	aiClient generativeClient
	bus      EventBus.Bus
	validate *validator.Validate
}

func NewMatcher(bus EventBus.Bus, aiClient generativeClient, profiles profileRepository,
	postings similaritySearcher, matches matchRepository) *Matcher {

	return &Matcher{
		profiles: profiles,
		postings: postings,
		matches:  matches,
		aiClient: aiClient,
		bus:      bus,
		validate: validator.New(),
	}
}

// FindMatchesForUser retrieves nearest-neighbor postings for the user's
// profile embedding, filters them by preferences, scores and persists them.
// Returned matches are ordered by descending composite score.
func (m *Matcher) FindMatchesForUser(ctx context.Context, userID int64, criteria MatchCriteria) ([]models.JobMatch, error) {

	if err := m.validate.Struct(criteria); err != nil {
		return nil, fmt.Errorf("invalid criteria: %w", err)
	}

	profile, err := m.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Embedding.IsEmpty() {
		return nil, ErrProfileIncomplete
	}

	prefs, err := m.profiles.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	hits, err := m.postings.FindSimilar(ctx, profile.Embedding, criteria.MaxMatches, criteria.MinSimilarity)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	var matches []models.JobMatch
	for _, hit := range hits {
		if !passesFilters(hit.Posting, prefs, criteria) {
			continue
		}

		score := compositeScore(profile, prefs, hit)
		matches = append(matches, models.JobMatch{
			UserID: userID,
			JobID:  hit.Posting.ID,
			Score:  score,
			Reason: m.relevanceReason(ctx, profile, hit.Posting, score),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	for i := range matches {
		created, err := m.matches.CreateIfAbsent(ctx, &matches[i])
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to persist match for user %v, job %v: %v", userID, matches[i].JobID, err)
			continue
		}
		if created {
			metrics.MatchesCreatedCounter.Inc()
			m.bus.Publish(events.MatchFoundTopic, events.MatchFound{
				UserID: userID,
				JobID:  matches[i].JobID,
				Score:  matches[i].Score,
			})
		}
	}

	return matches, nil
}

// BatchMatchAllUsers runs the single-user flow for every user that has both
// a profile and preferences. Per-user failures are collected; the batch
// never aborts.
func (m *Matcher) BatchMatchAllUsers(ctx context.Context, criteria MatchCriteria) (*BatchMatchResult, error) {

	startTime := time.Now()

	userIDs, err := m.profiles.ListMatchableUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matchable users: %w", err)
	}

	result := &BatchMatchResult{}
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}

		matches, err := m.FindMatchesForUser(ctx, userID, criteria)
		if err != nil {
			if errors.Is(err, ErrProfileIncomplete) || errors.Is(err, repositories.ErrProfileNotFound) {
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("user %v: %v", userID, err))
			continue
		}

		result.UsersProcessed++
		result.MatchesCreated += len(matches)
	}

	metrics.MatchRunDuration.Observe(time.Since(startTime).Seconds())
	log.Infof("batch matching finished: %v users processed, %v matches, %v errors",
		result.UsersProcessed, result.MatchesCreated, len(result.Errors))
	return result, nil
}

// UpdateMatchStatus applies a partial update of the engagement flags. The
// match must belong to the given user.
func (m *Matcher) UpdateMatchStatus(ctx context.Context, userID int64, matchID uint, update models.MatchStatusUpdate) error {

	if update.IsEmpty() {
		return ErrEmptyStatusUpdate
	}

	if _, err := m.matches.GetByIDAndUser(ctx, matchID, userID); err != nil {
		return ErrMatchNotFound
	}

	return m.matches.UpdateFlags(ctx, matchID, update)
}

func passesFilters(posting models.JobPosting, prefs *models.UserPreferences, criteria MatchCriteria) bool {

	if prefs == nil {
		return true
	}

	if criteria.FilterByLocation && len(prefs.LocationsAsArray()) > 0 {
		if !locationMatches(posting, prefs) {
			return false
		}
	}

	if criteria.FilterByRole && len(prefs.RolesAsArray()) > 0 {
		if !roleMatches(posting.Title, prefs.RolesAsArray()) {
			return false
		}
	}

	return true
}

func locationMatches(posting models.JobPosting, prefs *models.UserPreferences) bool {

	if prefs.AcceptsRemote && posting.Remote {
		return true
	}

	postingTokens := text.TokenSet(posting.Location)
	for _, location := range prefs.LocationsAsArray() {
		for token := range text.TokenSet(location) {
			if _, ok := postingTokens[token]; ok {
				return true
			}
		}
	}
	return false
}

func roleMatches(title string, roles []string) bool {
	title = strings.ToLower(title)
	for _, role := range roles {
		if role == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(role)) {
			return true
		}
	}
	return false
}

func compositeScore(profile *models.UserProfile, prefs *models.UserPreferences, hit repositories.SimilarPosting) float64 {

	postingTokens := text.TokenSet(hit.Posting.Title + " " + hit.Posting.Summary)

	skillsOverlap := text.OverlapRatio(profile.SkillsAsArray(), postingTokens)

	experienceTitles := lo.Map(profile.Experience, func(e models.ProfileExperience, _ int) string {
		return e.Title
	})
	experienceOverlap := text.OverlapRatio(experienceTitles, text.TokenSet(hit.Posting.Title))

	raw := similarityWeight*hit.Similarity +
		skillsWeight*skillsOverlap +
		experienceWeight*experienceOverlap +
		preferenceWeight*preferenceRatio(hit.Posting, prefs)

	score := raw * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// preferenceRatio is the fraction of the user's stated preferences the
// posting satisfies. Users without preferences contribute nothing.
func preferenceRatio(posting models.JobPosting, prefs *models.UserPreferences) float64 {

	if prefs == nil {
		return 0
	}

	considered, satisfied := 0, 0

	if roles := prefs.RolesAsArray(); len(roles) > 0 {
		considered++
		if roleMatches(posting.Title, roles) {
			satisfied++
		}
	}

	if len(prefs.LocationsAsArray()) > 0 {
		considered++
		if locationMatches(posting, prefs) {
			satisfied++
		}
	}

	if prefs.AcceptsRemote {
		considered++
		if posting.Remote {
			satisfied++
		}
	}

	if considered == 0 {
		return 0
	}
	return float64(satisfied) / float64(considered)
}

func (m *Matcher) relevanceReason(ctx context.Context, profile *models.UserProfile, posting models.JobPosting, score float64) string {

	prompt := fmt.Sprintf("Candidate skills: %v. Job: %v at %v. %v",
		strings.Join(profile.SkillsAsArray(), ", "), posting.Title, posting.Company, posting.Summary)

	reason, err := m.aiClient.GenerateText(ctx, reasonInstruction, prompt)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("failed to generate match reason: %v", err)
		return fallbackReason(score)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" || len([]rune(reason)) > maxReasonLength {
		return fallbackReason(score)
	}
	return reason
}

func fallbackReason(score float64) string {
	return fmt.Sprintf("This role matches your profile with an overall fit score of %.0f/100.", score)
}
