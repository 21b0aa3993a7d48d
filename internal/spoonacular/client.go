// Package spoonacular is a minimal client for the two Spoonacular recipe
// endpoints used by the recipe tool: search by ingredients and recipe information.
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.spoonacular.com"
	DefaultUserAgent = "CulinAI/0.1"
	DefaultTimeout   = 15 * time.Second

	endpointSearch = "findByIngredients"
	endpointDetail = "information"

	// error bodies are only read for their message
	maxErrorBody = 4 << 10
)

// Client calls the Spoonacular REST API. It holds no credentials; the API key
// is supplied per call by the caller.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit limits outbound requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a client. Empty values fall back to the package defaults.
func NewClient(baseURL, userAgent string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchByIngredients calls GET /recipes/findByIngredients with params plus apiKey.
func (c *Client) SearchByIngredients(ctx context.Context, apiKey string, params url.Values) ([]Candidate, error) {
	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	var out []Candidate
	if err := c.get(ctx, endpointSearch, "/recipes/findByIngredients", apiKey, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecipeInformation calls GET /recipes/{id}/information.
func (c *Client) RecipeInformation(ctx context.Context, apiKey string, id int) (*RecipeInformation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid recipe id %d", id)
	}

	query := url.Values{}
	query.Set("includeNutrition", "false")

	var out RecipeInformation
	path := "/recipes/" + strconv.Itoa(id) + "/information"
	if err := c.get(ctx, endpointDetail, path, apiKey, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpointName, path, apiKey string, query url.Values, out any) (err error) {
	start := time.Now()
	status := "error"
	defer func() {
		requestsTotal.WithLabelValues(endpointName, status).Inc()
		requestDuration.WithLabelValues(endpointName).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			status = "throttled"
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	query.Set("apiKey", apiKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", redactURLError(err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Endpoint:   endpointName,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the "message" field Spoonacular puts in error bodies.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

// redactURLError strips the query string from *url.Error so the API key
// never reaches logs or tool output.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	}
	return urlErr
}
