package ai

import (
	"context"
	"fmt"

	"scribe-service/internal/app/config"
	"scribe-service/internal/app/contracts"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Factory builds a Provider per processing job from the resolved provider
// name. Clients are constructed lazily so a misconfigured backend only
// fails jobs that actually select it.
type Factory struct {
	cfg        config.Scribe
	log        *zap.Logger
	limiter    *rate.Limiter
	cacheStore contracts.RedisRepository
}

func NewFactory(cfg config.Scribe, log *zap.Logger, cacheStore contracts.RedisRepository) *Factory {
	rps := cfg.ProviderRPS
	if rps <= 0 {
		rps = 1
	}
	return &Factory{
		cfg:        cfg,
		log:        log,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cacheStore: cacheStore,
	}
}

func (f *Factory) Build(ctx context.Context, providerName string) (Provider, error) {
	switch providerName {
	case constvars.ProviderOpenAI:
		client := openai.NewClient(f.cfg.OpenAIAPIKey)
		return newOpenAIProvider(constvars.ProviderOpenAI, client, f.log, f.limiter), nil

	case constvars.ProviderAzure:
		azureCfg := openai.DefaultAzureConfig(f.cfg.AzureAPIKey, f.cfg.AzureEndpoint)
		azureCfg.APIVersion = f.cfg.AzureAPIVersion
		client := openai.NewClientWithConfig(azureCfg)
		return newOpenAIProvider(constvars.ProviderAzure, client, f.log, f.limiter), nil

	case constvars.ProviderGoogle:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  f.cfg.GoogleProjectID,
			Location: f.cfg.GoogleLocation,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing vertex client: %w", err)
		}
		return newGoogleProvider(client, f.log, f.limiter, f.cacheStore), nil

	default:
		return nil, exceptions.ErrInvalidProviderName(providerName)
	}
}
