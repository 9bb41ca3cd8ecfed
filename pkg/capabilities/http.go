package capabilities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPHandler implements the "http" capability: outbound HTTP requests whose
// responses become step results for later steps to reference.
type HTTPHandler struct {
	logger logging.Logger
	client *http.Client
}

// NewHTTPHandler constructs an HTTP handler for one invocation
func NewHTTPHandler(logger logging.Logger) engine.Handler {
	return &HTTPHandler{
		logger: logger,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Operations returns the operations the http capability exposes
func (h *HTTPHandler) Operations() map[string]engine.OperationFunc {
	return map[string]engine.OperationFunc{
		"request": h.request,
	}
}

// request performs an HTTP request described by the parameters: "url"
// (required), "method" (default GET), "headers" (string map), and "body"
// (JSON-encoded when present). The result carries the status code, response
// headers, and the body, JSON-decoded when the payload allows it.
func (h *HTTPHandler) request(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("url parameter is required and must be a string")
	}

	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if raw, ok := params["body"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for name, value := range headers {
			req.Header.Set(name, fmt.Sprintf("%v", value))
		}
	}

	h.logger.Debug("http request", logging.F("method", method), logging.F("url", url))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]interface{}, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	// Prefer structured bodies; fall back to the raw string
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}

	return map[string]interface{}{
		"status":  resp.StatusCode,
		"headers": headers,
		"body":    decoded,
	}, nil
}
