package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a response body we are willing to read.
const maxResponseBytes = 1 << 20

// Predictor classifies a single message.
type Predictor interface {
	Predict(ctx context.Context, req Request) (*Result, error)
}

// Client talks to the prediction service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string, version string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/predict",
		httpClient: newHTTPClient(version),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint is the full URL predictions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Predict(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("posting prediction request",
		zap.String("endpoint", c.endpoint),
		zap.Bool("useBert", req.UseBERT),
		zap.Int("messageLength", len(req.Message)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serviceErr := &ServiceError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(payload, resp),
		}
		c.logger.Warn("prediction service returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", serviceErr.Detail),
		)
		return nil, serviceErr
	}

	return decodeResult(payload)
}

func decodeResult(payload []byte) (*Result, error) {
	var decoded predictResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	if decoded.Prediction == nil {
		return nil, &TransportError{Op: "decode response", Err: errors.New("response has no prediction")}
	}
	if c := decoded.Confidence; c != nil && (*c < 0 || *c > 100) {
		return nil, &TransportError{Op: "decode response", Err: fmt.Errorf("confidence %v outside [0, 100]", *c)}
	}

	return &Result{
		Label:      *decoded.Prediction,
		Confidence: decoded.Confidence,
	}, nil
}

// errorDetail prefers the service's own "detail" string and otherwise falls
// back to the standard status phrase.
func errorDetail(payload []byte, resp *http.Response) string {
	var decoded errorResponse
	if err := json.Unmarshal(payload, &decoded); err == nil && len(decoded.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(decoded.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
			return detail
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
