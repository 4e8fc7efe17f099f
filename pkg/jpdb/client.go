package jpdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production jpdb API host.
const DefaultBaseURL = "https://jpdb.io"

// RetryPolicy controls how rate-limited (HTTP 429) requests are retried.
// MaxAttempts counts the initial request, so 2 means one retry.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetry retries a rate-limited request once after five seconds.
var DefaultRetry = RetryPolicy{MaxAttempts: 2, Delay: 5 * time.Second}

// APIError is a non-success response from the jpdb API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jpdb API error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the jpdb.io JSON API with bearer-token auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Retry governs the 429 wait-and-retry behavior.
	Retry RetryPolicy

	// sleep is swappable in tests to avoid real delays.
	sleep func(time.Duration)
}

// NewClient creates a client for the given base URL and API key.
// An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		Retry:      DefaultRetry,
		sleep:      time.Sleep,
	}
}

// post sends a JSON POST to endpoint and decodes the response into out when
// out is non-nil. 429 responses are retried per the client's RetryPolicy;
// any other non-200/201 status becomes an *APIError.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	attempts := c.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", endpoint, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if attempt == attempts-1 {
			return &APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
		}
		c.sleep(c.Retry.Delay)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError builds an *APIError from a failed response, preferring the
// server-provided error_message over the raw body.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := http.StatusText(resp.StatusCode)
	var e struct {
		ErrorMessage string `json:"error_message"`
	}
	if json.Unmarshal(body, &e) == nil && e.ErrorMessage != "" {
		msg = e.ErrorMessage
	} else if len(bytes.TrimSpace(body)) > 0 {
		msg = string(body)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Ping verifies the API key against the ping endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.post(ctx, "/api/v1/ping", struct{}{}, nil)
}

// CreateDeck creates a new empty deck and returns its id.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	payload := struct {
		Name string `json:"name"`
	}{Name: name}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/deck/create-empty", payload, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// AddVocabulary adds (vid, sid) pairs to a deck. A nil or empty refs slice
// is a no-op.
func (c *Client) AddVocabulary(ctx context.Context, deckID int64, refs [][2]int) error {
	if len(refs) == 0 {
		return nil
	}
	payload := struct {
		ID         int64    `json:"id"`
		Vocabulary [][2]int `json:"vocabulary"`
	}{ID: deckID, Vocabulary: refs}
	return c.post(ctx, "/api/v1/deck/add-vocabulary", payload, nil)
}

// SetCardSentence sets a custom example sentence on a vocabulary card.
func (c *Client) SetCardSentence(ctx context.Context, vid, sid int, sentence string) error {
	payload := struct {
		VID      int    `json:"vid"`
		SID      int    `json:"sid"`
		Sentence string `json:"sentence"`
	}{VID: vid, SID: sid, Sentence: sentence}
	return c.post(ctx, "/api/v1/set-card-sentence", payload, nil)
}
