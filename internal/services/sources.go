package services

import (
	"context"

	"github.com/joblens/joblens/internal/clients/jsearch"
	"github.com/joblens/joblens/internal/domain/models"
	"github.com/samber/lo"
)

// Source yields raw postings one page at a time. An empty returned token
// means the last page was reached.
type Source interface {
	Name() string
	FetchPage(ctx context.Context, pageToken string) ([]models.RawPosting, string, error)
}

// JSearchSource adapts the external search API client to the pipeline,
// one source per configured query.
type JSearchSource struct {
	client   *jsearch.Client
	query    string
	location string
	perPage  int
}

func NewJSearchSource(client *jsearch.Client, query, location string, perPage int) *JSearchSource {
	return &JSearchSource{
		client:   client,
		query:    query,
		location: location,
		perPage:  perPage,
	}
}

func (s *JSearchSource) Name() string {
	return "jsearch:" + s.query
}

func (s *JSearchSource) FetchPage(ctx context.Context, pageToken string) ([]models.RawPosting, string, error) {

	postings, nextToken, err := s.client.Search(ctx, jsearch.SearchParameters{
		Query:     s.query,
		Location:  s.location,
		PageToken: pageToken,
		PerPage:   s.perPage,
	})
	if err != nil {
		return nil, "", err
	}

	raw := lo.Map(postings, func(p jsearch.Posting, _ int) models.RawPosting {
		return models.RawPosting{
			URL:         p.ApplyLink,
			Title:       p.Title,
			Company:     p.Company,
			Location:    p.Location,
			Description: p.Description,
			Remote:      p.Remote,
			PublishedAt: p.PostedAt.Time,
		}
	})
	return raw, nextToken, nil
}

// StaticSource serves a fixed set of postings in a single page. Used for
// seeding and tests.
type StaticSource struct {
	name     string
	postings []models.RawPosting
}

func NewStaticSource(name string, postings []models.RawPosting) *StaticSource {
	return &StaticSource{name: name, postings: postings}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) FetchPage(ctx context.Context, pageToken string) ([]models.RawPosting, string, error) {
	if pageToken != "" {
		return nil, "", nil
	}
	return s.postings, "", nil
}
