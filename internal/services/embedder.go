package services

import (
	"context"
	"strings"
	"time"

	"github.com/joblens/joblens/internal/clients/gemini"
	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/internal/logger"
	"github.com/joblens/joblens/pkg/vectors"
	log "github.com/sirupsen/logrus"
)

const embedInputMaxChars = 8000

type embeddingClient interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Embedder turns text into fixed-dimension unit vectors. An empty vector
// means "not embeddable" and must keep the owning record out of similarity
// search; callers never receive an error.
type Embedder struct {
	client    embeddingClient
	dimension int
	backoff   time.Duration
}

func NewEmbedder(client embeddingClient, dimension int, backoff time.Duration) *Embedder {
	return &Embedder{
		client:    client,
		dimension: dimension,
		backoff:   backoff,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) models.Vector {

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	values, err := e.client.EmbedText(ctx, text)
	if err != nil {
		values, err = e.retryOnce(ctx, text, err)
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("failed to embed text: %v", err)
		return nil
	}

	return e.validate(values)
}

// retryOnce handles the two recoverable failure kinds: a rate limit gets one
// retry after a fixed backoff, an oversized input gets one retry truncated to
// the character budget. Everything else fails immediately.
func (e *Embedder) retryOnce(ctx context.Context, text string, err error) ([]float32, error) {

	switch gemini.KindOf(err) {
	case gemini.KindRateLimited:
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.backoff):
		}
		return e.client.EmbedText(ctx, text)

	case gemini.KindInputTooLong:
		runes := []rune(text)
		if len(runes) <= embedInputMaxChars {
			return nil, err
		}
		return e.client.EmbedText(ctx, string(runes[:embedInputMaxChars]))

	default:
		return nil, err
	}
}

func (e *Embedder) validate(values []float32) models.Vector {

	if len(values) != e.dimension {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("embedding has dimension %v, expected %v", len(values), e.dimension)
		return nil
	}

	if !vectors.IsFinite(values) {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Error("embedding contains non-finite components")
		return nil
	}

	if err := vectors.Normalize(values); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("embedding rejected: %v", err)
		return nil
	}

	return values
}
