package reasoner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/roach88/ziwei/internal/chart"
)

// DefaultModel is used when DirectConfig.Model is empty.
const DefaultModel = "gpt-4o-mini"

// DirectConfig configures a Direct reasoner.
type DirectConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// RPM caps requests per minute; zero means unlimited.
	RPM int
	// Burst is the limiter bucket size. Defaults to 1.
	Burst int
}

// Direct is a Reasoner backed by an OpenAI-compatible chat model.
type Direct struct {
	model   model.BaseChatModel
	limiter *rate.Limiter
}

// NewDirect builds the chat model from cfg. A missing base URL or API key
// is a configuration error.
func NewDirect(ctx context.Context, cfg DirectConfig) (*Direct, error) {
	const op = "reasoner.direct"
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, chart.NewConfigurationError(op, "base URL not configured")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, chart.NewConfigurationError(op, "API key not configured")
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   name,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return NewDirectWithModel(cm, newLimiter(cfg.RPM, cfg.Burst)), nil
}

// NewDirectWithModel wraps an existing chat model. A nil limiter means
// unlimited.
func NewDirectWithModel(cm model.BaseChatModel, limiter *rate.Limiter) *Direct {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Direct{model: cm, limiter: limiter}
}

func newLimiter(rpm, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// Interpret implements Reasoner.
func (d *Direct) Interpret(ctx context.Context, req Request) (string, error) {
	const op = "reasoner.direct"
	if err := d.limiter.Wait(ctx); err != nil {
		return "", chart.NewServiceError(op, "rate limit wait", err)
	}

	msgs := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
	}
	resp, err := d.model.Generate(ctx, msgs, model.WithTemperature(float32(req.Temperature)))
	if err != nil {
		return "", chart.NewServiceError(op, "generate", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", chart.NewServiceError(op, "empty response", nil)
	}
	return resp.Content, nil
}
