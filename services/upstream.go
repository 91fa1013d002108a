package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/shared"
)

var (
	ErrUpstreamUnavailable     = errors.New("upstream: unavailable")
	ErrUpstreamNotFound        = errors.New("upstream: job not found")
	ErrUpstreamRejected        = errors.New("upstream: request rejected")
	ErrUpstreamInvalidResponse = errors.New("upstream: invalid response")
)

// defaultMaxPayloadSize bounds a single raw job payload. Larger bodies are
// rejected, never truncated.
const defaultMaxPayloadSize = 8 << 20

// UpstreamStore is the external analysis job store.
type UpstreamStore interface {
	CreateJob(ctx context.Context, params dto.UpstreamJobParams) (string, error)
	GetJob(ctx context.Context, jobID string) ([]byte, error)
}

type UpstreamClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxPayload int64
}

type UpstreamOption func(*UpstreamClient)

func WithUpstreamTimeout(d time.Duration) UpstreamOption {
	return func(c *UpstreamClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUpstreamToken(token string) UpstreamOption {
	return func(c *UpstreamClient) {
		c.token = token
	}
}

func WithUpstreamHTTPClient(client *http.Client) UpstreamOption {
	return func(c *UpstreamClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithUpstreamMaxPayload(n int64) UpstreamOption {
	return func(c *UpstreamClient) {
		if n > 0 {
			c.maxPayload = n
		}
	}
}

func NewUpstreamClient(baseURL string, opts ...UpstreamOption) *UpstreamClient {
	client := &UpstreamClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   8,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ForceAttemptHTTP2:     true,
			},
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxPayload: defaultMaxPayloadSize,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type createJobResponse struct {
	ID    string `json:"id"`
	JobID string `json:"job_id"`
}

// CreateJob registers a job upstream and returns its id.
func (c *UpstreamClient) CreateJob(ctx context.Context, params dto.UpstreamJobParams) (string, error) {
	body, err := shared.JSON().Marshal(params)
	if err != nil {
		return "", fmt.Errorf("upstream: encoding request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/jobs", body)
	if err != nil {
		return "", err
	}

	var resp createJobResponse
	if err := shared.JSON().Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamInvalidResponse, err)
	}
	id := resp.ID
	if id == "" {
		id = resp.JobID
	}
	if id == "" {
		return "", fmt.Errorf("%w: missing job id", ErrUpstreamInvalidResponse)
	}
	return id, nil
}

// GetJob returns the raw, unparsed payload of a job.
func (c *UpstreamClient) GetJob(ctx context.Context, jobID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/jobs/"+url.PathEscape(jobID), nil)
}

func (c *UpstreamClient) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("upstream: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"method": method,
		"url":    endpoint,
		"status": resp.StatusCode,
	}).Debug("Upstream response received")

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUpstreamNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamRejected, resp.StatusCode)
	}

	raw, err := readPayload(resp.Body, c.maxPayload)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrUpstreamInvalidResponse)
	}
	return raw, nil
}

// readPayload reads at most limit bytes and fails rather than truncating.
func readPayload(r io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamInvalidResponse, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: payload too large (over %d bytes)", ErrUpstreamInvalidResponse, limit)
	}
	return raw, nil
}
