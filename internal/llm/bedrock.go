package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/sozercan/insightbot/internal/config"
)

const (
	contentTypeJSON         = "application/json"
	bedrockAnthropicVersion = "bedrock-2023-05-31"
)

// ModelInvoker is the subset of the Bedrock runtime client the generators need.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Titan talks to Amazon Titan text models through InvokeModel.
type Titan struct {
	client ModelInvoker
}

func NewTitan(client ModelInvoker) *Titan {
	return &Titan{client: client}
}

func (t *Titan) Name() string { return "bedrock-titan" }

func (t *Titan) SupportsModel(modelID string) error {
	return checkFamily(modelID, config.FamilyTitan)
}

type titanRequest struct {
	InputText            string                `json:"inputText"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

type titanGenerationConfig struct {
	MaxTokenCount int64   `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

type titanResponse struct {
	InputTextTokenCount int64 `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount       int64  `json:"tokenCount"`
		OutputText       string `json:"outputText"`
		CompletionReason string `json:"completionReason"`
	} `json:"results"`
}

func (t *Titan) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error) {
	body, err := json.Marshal(titanRequest{
		InputText: prompt,
		TextGenerationConfig: titanGenerationConfig{
			MaxTokenCount: cfg.MaxTokens,
			Temperature:   cfg.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding titan request: %v", ErrLLMInvocation, err)
	}

	raw, err := invoke(ctx, t.client, cfg.Model, body)
	if err != nil {
		return nil, err
	}

	var parsed titanResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed titan response: %v", ErrLLMInvocation, err)
	}

	resp := &Response{Model: cfg.Model}
	resp.Usage.PromptTokens = parsed.InputTextTokenCount
	if len(parsed.Results) == 0 {
		slog.Warn("Model returned no results", "model", cfg.Model)
		resp.Usage.TotalTokens = resp.Usage.PromptTokens
		return resp, nil
	}
	resp.Content = parsed.Results[0].OutputText
	resp.Usage.CompletionTokens = parsed.Results[0].TokenCount
	resp.Usage.TotalTokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	return resp, nil
}

// Claude talks to Anthropic models hosted on Bedrock using the messages envelope.
type Claude struct {
	client ModelInvoker
}

func NewClaude(client ModelInvoker) *Claude {
	return &Claude{client: client}
}

func (c *Claude) Name() string { return "bedrock-claude" }

func (c *Claude) SupportsModel(modelID string) error {
	return checkFamily(modelID, config.FamilyClaude)
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int64           `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Claude) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeContent{{Type: "text", Text: prompt}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding claude request: %v", ErrLLMInvocation, err)
	}

	raw, err := invoke(ctx, c.client, cfg.Model, body)
	if err != nil {
		return nil, err
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed claude response: %v", ErrLLMInvocation, err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if len(parsed.Content) == 0 {
		slog.Warn("Model returned no results", "model", cfg.Model)
	}

	return &Response{
		Content: sb.String(),
		Model:   cfg.Model,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}

func invoke(ctx context.Context, client ModelInvoker, modelID string, body []byte) ([]byte, error) {
	slog.Debug("Invoking Bedrock model", "model", modelID, "bytes", len(body))
	out, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	if err != nil {
		slog.Error("Bedrock invocation failed", "model", modelID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLLMInvocation, err)
	}
	if out == nil || len(out.Body) == 0 {
		return nil, fmt.Errorf("%w: empty response body from %s", ErrLLMInvocation, modelID)
	}
	return out.Body, nil
}

func checkFamily(modelID, family string) error {
	if got := config.BedrockModelFamily(modelID); got != family {
		return fmt.Errorf("%w: %q does not accept the %s request format", ErrUnsupportedModel, modelID, family)
	}
	return nil
}
