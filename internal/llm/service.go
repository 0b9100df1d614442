// Package llm abstracts the optional language-model service. The
// pipeline depends only on Service and degrades gracefully when no
// implementation is configured or a call fails.
package llm

import "context"

type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

type Options struct {
	Model     string
	MaxTokens int
}

// Service is the single capability the synthesizer needs: turn a
// message list into one completion.
type Service interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}
