package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sozercan/insightbot/apimodels"
	"github.com/sozercan/insightbot/internal/dataset"
	"github.com/sozercan/insightbot/internal/llm"
)

// ErrEmptyQuestion is returned before any prompt is built when the question is blank.
var ErrEmptyQuestion = errors.New("question is empty")

// ErrInvalidOptions is returned when per-request generation options are out of
// range or name a model the configured generator cannot call.
var ErrInvalidOptions = errors.New("invalid generation options")

// ChartWarningPrefix starts the warning shown when a chart cannot be produced.
const ChartWarningPrefix = "No se pudo generar gráfico automático"

type Analyzer struct {
	generator llm.TextGenerator
	defaults  llm.GenerationConfig
	language  string
}

func New(generator llm.TextGenerator, defaults llm.GenerationConfig, language string) *Analyzer {
	return &Analyzer{
		generator: generator,
		defaults:  defaults,
		language:  language,
	}
}

// Ask answers one question about table. The text answer is produced first; chart
// problems are reported in the response and never turn into an error.
func (a *Analyzer) Ask(ctx context.Context, table *dataset.Table, req apimodels.AskRequest) (*apimodels.AnswerResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	if table == nil {
		return nil, fmt.Errorf("%w: no table loaded", dataset.ErrDataUnavailable)
	}

	genCfg, err := a.generationConfig(req.Options)
	if err != nil {
		return nil, err
	}

	interactionID := uuid.NewString()
	slog.Info("Starting analysis", "interaction", interactionID, "question", req.Question)
	startTime := time.Now()

	prompt := BuildPrompt(table, req.Question, a.language)
	slog.Debug("Prompt built", "interaction", interactionID, "prompt", prompt)

	llmResp, err := a.generator.Generate(ctx, prompt, genCfg)
	if err != nil {
		slog.Error("LLM analysis failed", "interaction", interactionID, "error", err)
		return nil, fmt.Errorf("LLM analysis failed: %w", err)
	}
	slog.Debug("Response received", "interaction", interactionID, "chars", len(llmResp.Content))

	result := &apimodels.AnswerResponse{
		Question:    req.Question,
		Answer:      llmResp.Content,
		ChartStatus: apimodels.ChartNone,
	}

	chartCfg, err := PlanChart(table, req.Question)
	switch {
	case err != nil:
		slog.Warn("Chart generation failed", "interaction", interactionID, "error", err)
		result.ChartStatus = apimodels.ChartFailed
		result.Warning = ChartWarning(err)
	case chartCfg != nil:
		result.ChartStatus = apimodels.ChartRendered
		result.Chart = chartCfg
	}

	result.Metadata = apimodels.AnswerMetadata{
		InteractionID: interactionID,
		Duration:      time.Since(startTime).String(),
		Provider:      a.generator.Name(),
		Model:         genCfg.Model,
		TokensUsed:    llmResp.Usage.TotalTokens,
		RowsSampled:   table.Head(PromptSampleRows).Len(),
	}

	slog.Info("Analysis completed", "interaction", interactionID, "chart", result.ChartStatus, "duration", result.Metadata.Duration)
	return result, nil
}

// ChartWarning formats a chart failure for the user.
func ChartWarning(err error) string {
	return fmt.Sprintf("%s: %v", ChartWarningPrefix, err)
}

func (a *Analyzer) generationConfig(opts apimodels.AskOptions) (llm.GenerationConfig, error) {
	cfg := a.defaults
	if opts.Model != "" {
		if checker, ok := a.generator.(llm.ModelChecker); ok {
			if err := checker.SupportsModel(opts.Model); err != nil {
				return cfg, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
			}
		}
		cfg.Model = opts.Model
	}
	if opts.MaxTokens != nil {
		if *opts.MaxTokens <= 0 {
			return cfg, fmt.Errorf("%w: maxTokens must be positive, got %d", ErrInvalidOptions, *opts.MaxTokens)
		}
		cfg.MaxTokens = *opts.MaxTokens
	}
	if opts.Temperature != nil {
		t := *opts.Temperature
		if math.IsNaN(t) || t < 0 || t > 1 {
			return cfg, fmt.Errorf("%w: temperature must be within [0, 1], got %v", ErrInvalidOptions, t)
		}
		cfg.Temperature = t
	}
	return cfg, nil
}
