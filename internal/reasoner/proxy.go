package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/roach88/ziwei/internal/chart"
)

// InterpretPath is the proxy endpoint path.
const InterpretPath = "/api/interpret"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Proxy is a Reasoner that posts to {BaseURL}/api/interpret.
type Proxy struct {
	// BaseURL is the server root, e.g. "http://localhost:3088". Required.
	BaseURL string

	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// NewProxy returns a Proxy for base using client (nil for the default).
func NewProxy(base string, client *http.Client) *Proxy {
	return &Proxy{BaseURL: base, Client: client}
}

// Interpret implements Reasoner.
func (p *Proxy) Interpret(ctx context.Context, req Request) (string, error) {
	const op = "reasoner.proxy"
	base := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if base == "" {
		return "", chart.NewConfigurationError(op, "interpretation endpoint not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+InterpretPath, bytes.NewReader(body))
	if err != nil {
		return "", chart.NewConfigurationError(op, fmt.Sprintf("invalid endpoint %q: %v", base, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", chart.NewServiceError(op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", chart.NewServiceError(op, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", chart.NewServiceError(op, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return contentOf(op, data)
}

func contentOf(op string, data []byte) (string, error) {
	var c completion
	if err := json.Unmarshal(data, &c); err != nil {
		return "", chart.NewServiceError(op, "malformed response", err)
	}
	if len(c.Choices) == 0 || strings.TrimSpace(c.Choices[0].Message.Content) == "" {
		return "", chart.NewServiceError(op, "empty response", nil)
	}
	return c.Choices[0].Message.Content, nil
}
