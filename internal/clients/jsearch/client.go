package jsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type searchResponse struct {
	Postings      []Posting `json:"data"`
	NextPageToken string    `json:"next_page_token"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the external job-search API. Pages are keyed by a
// continuation token; non-200 responses are retried with exponential backoff
// up to maxRetries before the page is abandoned.
type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
	maxRetries  int
	backoffBase time.Duration
}

func NewClient(host, apiKey string) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     "https://" + host,
		apiKey:      apiKey,
		maxRetries:  3,
		backoffBase: time.Second,
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

// Search fetches one page of postings. The returned token is empty on the
// last page.
func (c *Client) Search(ctx context.Context, parameters SearchParameters) ([]Posting, string, error) {

	if err := parameters.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid parameters: %w", err)
	}

	apiURL := c.baseURL + "/search?" + parameters.ToUrlParams().Encode()

	body, err := c.sendRequest(ctx, http.MethodGet, apiURL)
	if err != nil {
		return nil, "", err
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, "", fmt.Errorf("error decoding JSON response: %v", err)
	}

	return response.Postings, response.NextPageToken, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string) ([]byte, error) {

	var lastErr error
	backoff := c.backoffBase

	for attempt := 0; attempt <= c.maxRetries; attempt++ {

		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %v", err)
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("error sending request: %v", err)
			continue
		}

		body, err := c.handleResponse(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %v attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
