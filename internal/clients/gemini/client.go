package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

type Client struct {
	client            *genai.Client
	textModel         *genai.GenerativeModel
	embeddingModel    *genai.EmbeddingModel
	minuteRateLimiter *rate.Limiter
	dayRateLimiter    *rate.Limiter
}

func NewClient(ctx context.Context, apiKey, textModel, embeddingModel string) (*Client, error) {

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	genModel := client.GenerativeModel(textModel)
	genModel.SetTemperature(0.2)
	genModel.SetMaxOutputTokens(1024)

	return &Client{
		client:         client,
		textModel:      genModel,
		embeddingModel: client.EmbeddingModel(embeddingModel),
	}, nil
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	c.minuteRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) SetDayRateLimit(maxRequestsPerDay float32) {
	c.dayRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerDay/86400), int(maxRequestsPerDay))
}

// GenerateText runs one generation call with a system instruction.
// Internal server errors are retried up to 3 times before giving up.
func (c *Client) GenerateText(ctx context.Context, system, prompt string) (string, error) {

	var resp string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(3, 2*time.Second, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warn("gemini api returned an internal error, retrying...")
		}
		resp, err = c.waitAndGenerate(ctx, system, prompt)
		return err, isInternalError(err)
	})

	if err != nil {
		return "", classify(err)
	}
	return resp, nil
}

// EmbedText returns the embedding vector for the given text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {

	if err := c.waitForLimiters(ctx); err != nil {
		return nil, classify(err)
	}

	resp, err := c.embeddingModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify(err)
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &APIError{Kind: KindBadResponse, Err: fmt.Errorf("embedding response has no values")}
	}

	return resp.Embedding.Values, nil
}

func (c *Client) waitAndGenerate(ctx context.Context, system, prompt string) (string, error) {

	if err := c.waitForLimiters(ctx); err != nil {
		return "", err
	}

	model := c.textModel
	if system != "" {
		clone := *c.textModel
		clone.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		model = &clone
	}

	response, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return "", &APIError{Kind: KindBadResponse, Err: fmt.Errorf("response has no candidates")}
	}

	if textPart, ok := response.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(textPart), nil
	}

	return "", &APIError{Kind: KindBadResponse, Err: fmt.Errorf("response part is not text")}
}

func (c *Client) waitForLimiters(ctx context.Context) error {
	limiters := []*rate.Limiter{c.minuteRateLimiter, c.dayRateLimiter}
	for _, limiter := range limiters {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
