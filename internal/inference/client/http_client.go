package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	inferencedomain "github.com/licensedesk/royalty/internal/inference/domain"
	"go.uber.org/zap"
)

// HTTPClient calls an external inference endpoint. The request timeout bounds
// the engine's only suspension point; callers degrade to provenance "none"
// when it elapses.
type HTTPClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger
}

func NewHTTP(endpoint, apiKey string, timeout time.Duration, log *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		log:      log.Named("inference.client"),
	}
}

type inferFieldRequest struct {
	Header  string   `json:"header"`
	Samples []string `json:"samples,omitempty"`
}

type inferCategoryRequest struct {
	Raw        string   `json:"raw"`
	Categories []string `json:"categories"`
}

type inferResponse struct {
	Value string `json:"value"`
}

func (c *HTTPClient) InferField(ctx context.Context, header string, samples []string) (string, error) {
	if len(samples) > 3 {
		samples = samples[:3]
	}
	return c.post(ctx, "/v1/infer/field", inferFieldRequest{Header: header, Samples: samples})
}

func (c *HTTPClient) InferCategory(ctx context.Context, raw string, categories []string) (string, error) {
	return c.post(ctx, "/v1/infer/category", inferCategoryRequest{Raw: raw, Categories: categories})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference: unexpected status %d", resp.StatusCode)
	}

	var decoded inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return strings.TrimSpace(decoded.Value), nil
}

// NopClient is used when no inference endpoint is configured.
type NopClient struct{}

func (NopClient) InferField(context.Context, string, []string) (string, error) {
	return "", inferencedomain.ErrUnavailable
}

func (NopClient) InferCategory(context.Context, string, []string) (string, error) {
	return "", inferencedomain.ErrUnavailable
}
