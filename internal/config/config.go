package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderAzure   = "azure"
)

// Bedrock model families, each with its own request envelope.
const (
	FamilyTitan  = "titan"
	FamilyClaude = "claude"
)

type Config struct {
	Server  ServerConfig
	Dataset DatasetConfig
	LLM     LLMConfig
	OpenAI  OpenAIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           string        `envconfig:"SERVER_PORT" default:"8000"`
	Host           string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
}

// DatasetConfig locates the CSV object the bot answers questions about.
type DatasetConfig struct {
	Bucket      string `envconfig:"DATASET_BUCKET" required:"true"`
	Key         string `envconfig:"DATASET_KEY" default:"data/ventas-2.csv"`
	Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	PreviewRows int    `envconfig:"PREVIEW_ROWS" default:"5"`
}

type LLMConfig struct {
	Provider       string  `envconfig:"LLM_PROVIDER" default:"bedrock"`
	ModelID        string  `envconfig:"LLM_MODEL_ID" default:"amazon.titan-text-express-v1"`
	MaxTokens      int64   `envconfig:"LLM_MAX_TOKENS" default:"500"`
	Temperature    float64 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	AnswerLanguage string  `envconfig:"LLM_ANSWER_LANGUAGE" default:"español"`
	BedrockRegion  string  `envconfig:"BEDROCK_REGION"`
}

type OpenAIConfig struct {
	APIKey      string `envconfig:"OPENAI_API_KEY"`
	APIEndpoint string `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1"`
	APIVersion  string `envconfig:"OPENAI_API_VERSION" default:"2024-06-01"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadConfig reads an optional .env file (ENV_FILE, default ".env") and then the
// process environment.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Info("configuration loaded successfully",
		"bucket", cfg.Dataset.Bucket,
		"key", cfg.Dataset.Key,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.ModelID,
	)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderBedrock:
	case ProviderOpenAI, ProviderAzure:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.ModelID == "" {
		return errors.New("LLM_MODEL_ID cannot be empty")
	}
	if c.LLM.Provider != ProviderBedrock && BedrockModelFamily(c.LLM.ModelID) != "" {
		return fmt.Errorf("LLM_MODEL_ID %q is a Bedrock model; set an OpenAI model or deployment for provider %q", c.LLM.ModelID, c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 1], got %v", c.LLM.Temperature)
	}
	if c.Dataset.PreviewRows < 0 {
		return fmt.Errorf("PREVIEW_ROWS cannot be negative, got %d", c.Dataset.PreviewRows)
	}
	return nil
}

// BedrockModelFamily maps a model id to the envelope it speaks, or "" when the id
// is not a supported Bedrock text model. Cross-region inference profiles
// ("us.anthropic....") are recognised too.
func BedrockModelFamily(modelID string) string {
	id := strings.ToLower(modelID)
	switch {
	case strings.HasPrefix(id, "amazon.titan-text"), strings.Contains(id, ".amazon.titan-text"):
		return FamilyTitan
	case strings.HasPrefix(id, "anthropic."), strings.Contains(id, ".anthropic."):
		return FamilyClaude
	default:
		return ""
	}
}

// Region returns the Bedrock region, falling back to the dataset region.
func (c LLMConfig) Region(fallback string) string {
	if c.BedrockRegion != "" {
		return c.BedrockRegion
	}
	return fallback
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
