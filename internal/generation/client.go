// Package generation calls the external service that turns a hosted PDF and
// a query into marketing copy and an image.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"promoagent/internal/config"
	"promoagent/internal/models"
)

var ErrUpstream = errors.New("generation upstream failed")

type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
}

func NewClient(cfg config.GenerationConfig) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: cfg.Endpoint,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

type generateResponse struct {
	Response string `json:"response"`
	ImageURL string `json:"image_url"`
	Error    string `json:"error"`
}

// Generate posts pdf_url and user_query as multipart form fields. Callers are
// queued behind the limiter rather than rejected.
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) (models.GeneratedResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("wait for limiter: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("pdf_url", req.PDFURL); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("write pdf_url: %w", err)
	}
	if err := writer.WriteField("user_query", req.UserQuery); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("write user_query: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("close writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return models.GeneratedResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.GeneratedResult{}, fmt.Errorf("%w: send request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.GeneratedResult{}, fmt.Errorf("%w: status %d after %s: %s", ErrUpstream, resp.StatusCode, time.Since(start).Round(time.Millisecond), string(snippet))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.GeneratedResult{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	// The pipeline reports stage failures in a 200 body.
	if result.Error != "" {
		return models.GeneratedResult{}, fmt.Errorf("%w: %s", ErrUpstream, result.Error)
	}

	return models.GeneratedResult{
		Text:     result.Response,
		ImageURL: result.ImageURL,
	}, nil
}
