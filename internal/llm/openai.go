package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/sozercan/insightbot/internal/config"
)

// OpenAI client implementation, also used for Azure OpenAI deployments.
type OpenAI struct {
	client   *openai.Client
	provider string
}

func NewOpenAI(provider string, cfg *config.OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}

	var client *openai.Client

	switch provider {
	case config.ProviderAzure:
		client = openai.NewClient(
			azure.WithEndpoint(cfg.APIEndpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		)
	default: // "openai"
		client = openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.APIEndpoint),
			option.WithMaxRetries(0),
		)
	}

	return &OpenAI{
		client:   client,
		provider: provider,
	}, nil
}

func (o *OpenAI) Name() string { return o.provider }

func (o *OpenAI) SupportsModel(modelID string) error {
	if config.BedrockModelFamily(modelID) != "" {
		return fmt.Errorf("%w: %q is a Bedrock model, not available on %s", ErrUnsupportedModel, modelID, o.provider)
	}
	return nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error) {
	resp, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(cfg.Model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			}),
			Temperature: openai.F(cfg.Temperature),
			MaxTokens:   openai.F(cfg.MaxTokens),
		},
	)
	if err != nil {
		slog.Error("OpenAI completion failed", "model", cfg.Model, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLLMInvocation, err)
	}

	response := &Response{
		Model: cfg.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		response.Content = resp.Choices[0].Message.Content
	} else {
		slog.Warn("Model returned no results", "model", cfg.Model)
	}

	return response, nil
}
