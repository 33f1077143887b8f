package llm

import (
	"context"
	"errors"
)

// ErrLLMInvocation wraps every failure to obtain text from a model.
var ErrLLMInvocation = errors.New("LLM invocation failed")

// ErrUnsupportedModel reports a model id the generator cannot address.
var ErrUnsupportedModel = errors.New("unsupported model")

// TextGenerator turns a prompt into generated text.
type TextGenerator interface {
	// Generate makes a single attempt; an empty result list yields an empty Content.
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error)
	// Name identifies the provider variant, e.g. "bedrock-titan".
	Name() string
}

// ModelChecker is implemented by generators whose request format depends on the
// model id, so per-request overrides can be rejected before any call is made.
type ModelChecker interface {
	SupportsModel(modelID string) error
}

type GenerationConfig struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Response struct {
	Content string
	Model   string
	Usage   Usage
}
