package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/time/rate"

	"boundary/internal/apperr"
	"boundary/internal/observability"
)

// AnthropicService implements Service against the Anthropic Messages
// API. Calls are rate limited with a token bucket; the limiter honors
// context cancellation.
type AnthropicService struct {
	client  anthropic.Client
	limiter *rate.Limiter
}

func NewAnthropicService(ratePerSecond float64, burst int) *AnthropicService {
	if ratePerSecond <= 0 {
		ratePerSecond = 0.5
	}
	if burst < 1 {
		burst = 1
	}
	return &AnthropicService{
		client:  anthropic.NewClient(), // reads ANTHROPIC_API_KEY
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (s *AnthropicService) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", apperr.Wrap(err, apperr.CodeUnavailable, "llm rate limit wait")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: int64(opts.MaxTokens),
	}
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		observability.LLMCallsTotal.WithLabelValues("error").Inc()
		return "", apperr.Wrap(err, apperr.CodeUnavailable, "anthropic completion")
	}
	observability.LLMCallsTotal.WithLabelValues("ok").Inc()

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", apperr.New(apperr.CodeUnavailable, fmt.Sprintf("empty completion from model %s", opts.Model))
	}
	return b.String(), nil
}
