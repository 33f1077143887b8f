package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/insightbot/internal/config"
)

type fakeInvoker struct {
	body  string
	err   error
	calls int
	input *bedrockruntime.InvokeModelInput
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var titanCfg = GenerationConfig{Model: "amazon.titan-text-express-v1", MaxTokens: 500, Temperature: 0.7}

func TestTitanEnvelope(t *testing.T) {
	invoker := &fakeInvoker{body: `{"inputTextTokenCount":12,"results":[{"tokenCount":5,"outputText":"El producto A.","completionReason":"FINISH"}]}`}

	resp, err := NewTitan(invoker).Generate(context.Background(), "¿Qué producto vendió más?", titanCfg)
	require.NoError(t, err)

	assert.Equal(t, "El producto A.", resp.Content)
	assert.Equal(t, int64(17), resp.Usage.TotalTokens)
	assert.Equal(t, 1, invoker.calls)

	require.NotNil(t, invoker.input)
	assert.Equal(t, "amazon.titan-text-express-v1", aws.ToString(invoker.input.ModelId))
	assert.Equal(t, "application/json", aws.ToString(invoker.input.ContentType))
	assert.Equal(t, "application/json", aws.ToString(invoker.input.Accept))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Equal(t, "¿Qué producto vendió más?", sent["inputText"])
	genCfg, ok := sent["textGenerationConfig"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(500), genCfg["maxTokenCount"])
	assert.Equal(t, 0.7, genCfg["temperature"])
}

func TestTitanEmptyResultsYieldEmptyString(t *testing.T) {
	for _, body := range []string{`{"results":[]}`, `{}`, `{"results":[{}]}`} {
		resp, err := NewTitan(&fakeInvoker{body: body}).Generate(context.Background(), "p", titanCfg)
		require.NoError(t, err, body)
		assert.Equal(t, "", resp.Content, body)
	}
}

func TestTitanFailures(t *testing.T) {
	tests := map[string]*fakeInvoker{
		"transport":      {err: errors.New("connection reset")},
		"malformed json": {body: `{"results": "nope"`},
		"empty body":     {body: ""},
	}
	for name, invoker := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := NewTitan(invoker).Generate(context.Background(), "p", titanCfg)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ErrLLMInvocation)
			assert.Equal(t, 1, invoker.calls, "no retries")
		})
	}
}

func TestClaudeEnvelope(t *testing.T) {
	invoker := &fakeInvoker{body: `{"content":[{"type":"text","text":"Hola "},{"type":"text","text":"mundo"}],"usage":{"input_tokens":3,"output_tokens":2}}`}
	cfg := GenerationConfig{Model: "anthropic.claude-3-sonnet-20240229-v1:0", MaxTokens: 300, Temperature: 0.2}

	resp, err := NewClaude(invoker).Generate(context.Background(), "prompt", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Hola mundo", resp.Content)
	assert.Equal(t, int64(5), resp.Usage.TotalTokens)

	var sent claudeRequest
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Equal(t, bedrockAnthropicVersion, sent.AnthropicVersion)
	assert.Equal(t, int64(300), sent.MaxTokens)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user", sent.Messages[0].Role)
	assert.Equal(t, "prompt", sent.Messages[0].Content[0].Text)
}

func TestClaudeEmptyContent(t *testing.T) {
	resp, err := NewClaude(&fakeInvoker{body: `{"content":[]}`}).Generate(context.Background(), "p", GenerationConfig{Model: "anthropic.claude-v2"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Content)
}

func TestNewBedrockSelectsFamily(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"amazon.titan-text-express-v1", "bedrock-titan"},
		{"amazon.titan-text-lite-v1", "bedrock-titan"},
		{"anthropic.claude-3-sonnet-20240229-v1:0", "bedrock-claude"},
		{"us.anthropic.claude-3-5-sonnet-20241022-v2:0", "bedrock-claude"},
	}
	for _, tt := range tests {
		gen, err := NewBedrock(&fakeInvoker{}, tt.model)
		require.NoError(t, err, tt.model)
		assert.Equal(t, tt.want, gen.Name(), tt.model)
	}

	_, err := NewBedrock(&fakeInvoker{}, "meta.llama3-8b-instruct-v1:0")
	assert.Error(t, err)
}

func TestSupportsModel(t *testing.T) {
	openaiGen, err := NewOpenAI(config.ProviderOpenAI, &config.OpenAIConfig{APIKey: "k", APIEndpoint: "http://localhost"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		gen     ModelChecker
		model   string
		wantErr bool
	}{
		{"titan accepts titan", NewTitan(&fakeInvoker{}), "amazon.titan-text-lite-v1", false},
		{"titan rejects claude", NewTitan(&fakeInvoker{}), "anthropic.claude-3-sonnet-20240229-v1:0", true},
		{"claude accepts profile", NewClaude(&fakeInvoker{}), "us.anthropic.claude-3-5-sonnet-20241022-v2:0", false},
		{"claude rejects titan", NewClaude(&fakeInvoker{}), "amazon.titan-text-express-v1", true},
		{"openai accepts gpt", openaiGen, "gpt-4o-mini", false},
		{"openai rejects titan", openaiGen, "amazon.titan-text-express-v1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gen.SupportsModel(tt.model)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedModel)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var received map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Ventas en alza."}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
}`))
	}))
	defer ts.Close()

	gen, err := NewOpenAI(config.ProviderOpenAI, &config.OpenAIConfig{APIKey: "test", APIEndpoint: ts.URL})
	require.NoError(t, err)
	assert.Equal(t, "openai", gen.Name())

	resp, err := gen.Generate(context.Background(), "¿Cómo van las ventas?", GenerationConfig{Model: "gpt-4o-mini", MaxTokens: 100, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Ventas en alza.", resp.Content)
	assert.Equal(t, int64(14), resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", received["model"])
	assert.Equal(t, float64(100), received["max_tokens"])
}

func TestOpenAIFailureDoesNotRetry(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer ts.Close()

	gen, err := NewOpenAI(config.ProviderOpenAI, &config.OpenAIConfig{APIKey: "test", APIEndpoint: ts.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "p", GenerationConfig{Model: "gpt-4o-mini", MaxTokens: 10})
	assert.ErrorIs(t, err, ErrLLMInvocation)
	assert.Equal(t, 1, calls)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Dataset: config.DatasetConfig{Region: "us-east-1"},
		LLM:     config.LLMConfig{Provider: config.ProviderBedrock, ModelID: "amazon.titan-text-express-v1"},
	}
	gen, err := New(cfg, aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "bedrock-titan", gen.Name())

	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.OpenAI = config.OpenAIConfig{APIKey: "k", APIEndpoint: "http://localhost"}
	gen, err = New(cfg, aws.Config{})
	require.NoError(t, err)
	assert.Equal(t, "openai", gen.Name())

	cfg.LLM.Provider = "cohere"
	_, err = New(cfg, aws.Config{})
	assert.Error(t, err)
}
