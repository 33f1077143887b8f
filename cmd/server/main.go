// cmd/server/main.go
package main

import (
	"context"
	"log"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/sozercan/insightbot/internal/analyzer"
	"github.com/sozercan/insightbot/internal/config"
	"github.com/sozercan/insightbot/internal/dataset"
	"github.com/sozercan/insightbot/internal/llm"
	"github.com/sozercan/insightbot/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slog.SetDefault(config.NewLogger(cfg.Log))

	// Credentials come from the default AWS chain; SDK retries are off so every
	// failure is reported after a single attempt.
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Dataset.Region),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		log.Fatalf("failed to load AWS configuration: %v", err)
	}

	loader, err := dataset.NewLoader(dataset.NewS3Client(awsCfg, cfg.Dataset.S3Endpoint), cfg.Dataset.Bucket, cfg.Dataset.Key)
	if err != nil {
		log.Fatalf("failed to create dataset loader: %v", err)
	}

	generator, err := llm.New(cfg, awsCfg)
	if err != nil {
		log.Fatalf("failed to create LLM provider: %v", err)
	}

	analyzer := analyzer.New(generator, llm.GenerationConfig{
		Model:       cfg.LLM.ModelID,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, cfg.LLM.AnswerLanguage)

	srv, err := server.New(*cfg, loader, analyzer)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port, "dataset", loader.Source(), "provider", generator.Name())
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
