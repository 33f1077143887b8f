package llm

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/sozercan/insightbot/internal/config"
)

// New picks the generator variant for the configured provider and model.
// awsCfg is only used for the bedrock provider.
func New(cfg *config.Config, awsCfg aws.Config) (TextGenerator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderBedrock:
		client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			o.Region = cfg.LLM.Region(cfg.Dataset.Region)
		})
		return NewBedrock(client, cfg.LLM.ModelID)
	case config.ProviderOpenAI, config.ProviderAzure:
		return NewOpenAI(cfg.LLM.Provider, &cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

// NewBedrock returns the Bedrock generator that understands modelID's envelope.
func NewBedrock(client ModelInvoker, modelID string) (TextGenerator, error) {
	switch config.BedrockModelFamily(modelID) {
	case config.FamilyTitan:
		return NewTitan(client), nil
	case config.FamilyClaude:
		return NewClaude(client), nil
	default:
		return nil, fmt.Errorf("unsupported Bedrock model %q: expected an amazon.titan-text or anthropic model", modelID)
	}
}
