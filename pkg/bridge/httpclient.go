package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scopedfs/scopedfs/internal/telemetry"
)

// requestValidator checks requests against their validate tags before they
// leave the process. A malformed request never reaches the provider.
var requestValidator = validator.New()

// HTTPClient is a Bridge that talks to a provider host over HTTP.
// Operations are POSTed as JSON to /v1/op/{name}; provider failures come
// back as a JSON error envelope and surface as *InvocationError.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    Metrics
}

// errorEnvelope is the wire shape of a provider-side failure.
type errorEnvelope struct {
	Error string `json:"error"`
}

// NewHTTPClient creates a bridge client for the provider host at baseURL.
// A nil metrics is valid and records nothing.
func NewHTTPClient(baseURL string, timeout time.Duration, metrics Metrics) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

// Invoke implements Bridge.
func (c *HTTPClient) Invoke(ctx context.Context, op Op, req, resp any) error {
	ctx, span := telemetry.StartBridgeSpan(ctx, string(op), refOf(req))
	defer span.End()

	start := time.Now()
	err := c.invoke(ctx, op, req, resp)
	observeInvoke(c.metrics, op, start, err)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return err
}

func (c *HTTPClient) invoke(ctx context.Context, op Op, req, resp any) error {
	if err := requestValidator.Struct(req); err != nil {
		return fmt.Errorf("invalid %s request: %w", op, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/op/"+string(op), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &InvocationError{Op: op, Ref: refOf(req), Message: err.Error()}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &InvocationError{Op: op, Ref: refOf(req), Message: "reading response: " + err.Error()}
	}

	if httpResp.StatusCode >= 400 {
		var envelope errorEnvelope
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &InvocationError{Op: op, Ref: refOf(req), Message: msg}
	}

	if resp != nil {
		if err := json.Unmarshal(respBody, resp); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return nil
}
