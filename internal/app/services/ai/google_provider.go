package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/pkg/constvars"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	// Vertex only charges less than a fresh prompt once the cached context is
	// big enough; below this the cache is created but not activated.
	minCachedTokens = 1024
	cacheTTL        = 24 * time.Hour
)

type googleProvider struct {
	client     *genai.Client
	log        *zap.Logger
	limiter    *rate.Limiter
	cacheStore contracts.RedisRepository
}

func newGoogleProvider(client *genai.Client, log *zap.Logger, limiter *rate.Limiter, cacheStore contracts.RedisRepository) *googleProvider {
	return &googleProvider{
		client:     client,
		log:        log,
		limiter:    limiter,
		cacheStore: cacheStore,
	}
}

func (p *googleProvider) Name() string { return constvars.ProviderGoogle }

func (p *googleProvider) NativeAudio() bool { return true }

// Vertex rejects large function declarations, so chunks stay small.
func (p *googleProvider) FieldBudget() int { return 20 }

func (p *googleProvider) Transcribe(ctx context.Context, audio FilePayload, audioModel string) (string, error) {
	return "", fmt.Errorf("google backend folds audio into the extraction content, transcribe is not exposed")
}

func (p *googleProvider) Extract(ctx context.Context, in ExtractInput) (*ExtractResult, error) {
	contents := p.buildContents(in.Messages)

	prepared := SanitizeSchema(in.Schema, true, true)
	tools := []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:                 constvars.ExtractionFunctionName,
			Description:          "Process the AI form fill and return the filled form data.",
			ParametersJsonSchema: prepared,
		}},
	}}
	toolConfig := &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode: genai.FunctionCallingConfigModeAny,
		},
	}

	cache, err := p.resolveCache(ctx, in.ChatModel, in.CacheKey, tools, toolConfig)
	if err != nil {
		return nil, err
	}
	useCache := cache != nil && cache.UsageMetadata != nil && cache.UsageMetadata.TotalTokenCount > minCachedTokens
	if cache != nil && !useCache {
		p.log.Info("cached content below activation threshold, extracting uncached",
			zap.String("cache", cache.Name),
		)
	}

	generateConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(in.Temperature),
	}
	if useCache {
		generateConfig.CachedContent = cache.Name
	} else {
		generateConfig.Tools = tools
		generateConfig.ToolConfig = toolConfig
	}
	if strings.Contains(in.ChatModel, "2.5") {
		// Pro models reason with a small budget; flash models skip thinking.
		budget := int32(0)
		includeThoughts := false
		if strings.Contains(in.ChatModel, "pro") {
			budget = 1024
			includeThoughts = true
		}
		generateConfig.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget:  genai.Ptr(budget),
			IncludeThoughts: includeThoughts,
		}
	}

	result := &ExtractResult{}
	if useCache {
		result.CacheName = cache.Name
	}

	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := p.client.Models.GenerateContent(ctx, in.ChatModel, contents, generateConfig)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", constvars.ErrDevProviderExtraction, err)
		}
		if len(resp.Candidates) == 0 {
			return nil, fmt.Errorf(constvars.ErrDevProviderEmptyResponse)
		}

		candidate := resp.Candidates[0]
		switch candidate.FinishReason {
		case genai.FinishReasonStop:
		case genai.FinishReasonMalformedFunctionCall:
			// Vertex occasionally produces a malformed function call server
			// side; nothing in the request causes it, so one retry is fair.
			if attempt > 0 {
				return nil, fmt.Errorf(constvars.ErrDevProviderMalformedOutput, candidate.FinishMessage)
			}
			p.log.Warn("malformed function call, retrying extraction once",
				zap.String("finish_message", candidate.FinishMessage),
			)
			result.Retries = attempt + 1
			continue
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
			return nil, fmt.Errorf("%w: %s", ErrRefused, candidate.FinishReason)
		default:
			return nil, fmt.Errorf(constvars.ErrDevProviderFinishReason,
				fmt.Sprintf("%s : %s", candidate.FinishReason, candidate.FinishMessage))
		}

		var values map[string]interface{}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				result.Thinking = part.Text
				continue
			}
			if part.FunctionCall != nil {
				values = part.FunctionCall.Args
			}
		}
		if values == nil {
			if attempt > 0 {
				return nil, fmt.Errorf(constvars.ErrDevProviderMalformedOutput, "no function call in response")
			}
			p.log.Warn("response carried no function call, retrying extraction once")
			result.Retries = attempt + 1
			continue
		}

		if transcription, ok := values[constvars.TranscriptionFieldKey].(string); ok {
			result.Transcription = transcription
			delete(values, constvars.TranscriptionFieldKey)
		}

		result.Values = values
		result.CompletionID = resp.ResponseID
		if resp.UsageMetadata != nil {
			result.Usage = TokenUsage{
				Input:  int(resp.UsageMetadata.PromptTokenCount),
				Output: int(resp.UsageMetadata.CandidatesTokenCount),
				Cached: int(resp.UsageMetadata.CachedContentTokenCount),
			}
		}
		return result, nil
	}
}

// resolveCache finds or creates the server-side cached (schema, tool) context
// for this cache key. Creation failure degrades to uncached extraction except
// for the oversized-schema case, which no retry can fix.
func (p *googleProvider) resolveCache(ctx context.Context, chatModel, cacheKey string, tools []*genai.Tool, toolConfig *genai.ToolConfig) (*genai.CachedContent, error) {
	if cacheKey == "" || p.cacheStore == nil {
		return nil, nil
	}

	redisKey := fmt.Sprintf(constvars.RedisKeyProviderCacheFormat, cacheKey)
	if name, err := p.cacheStore.Get(ctx, redisKey); err == nil && name != "" {
		cache, err := p.client.Caches.Get(ctx, name, nil)
		if err == nil && strings.HasSuffix(cache.Model, chatModel) {
			return cache, nil
		}
		// Expired provider-side or model changed; fall through to recreate.
	}

	cache, err := p.client.Caches.Create(ctx, chatModel, &genai.CreateCachedContentConfig{
		DisplayName: "scribe_" + cacheKey,
		Tools:       tools,
		ToolConfig:  toolConfig,
		TTL:         cacheTTL,
	})
	if err != nil {
		if strings.Contains(err.Error(), "constraint-is-too-big") {
			return nil, fmt.Errorf(constvars.ErrClientFormTooLarge)
		}
		p.log.Warn("failed to create cached content, extracting uncached", zap.Error(err))
		return nil, nil
	}

	if err := p.cacheStore.Set(ctx, redisKey, cache.Name, cacheTTL); err != nil {
		p.log.Warn("failed to record cache name", zap.Error(err))
	}
	return cache, nil
}

func (p *googleProvider) buildContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.File != nil {
			mimeType := fmt.Sprintf("%s/%s", msg.File.Kind, msg.File.Format)
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText(fmt.Sprintf("%s : ", msg.File.Kind)),
					genai.NewPartFromBytes(msg.File.Data, mimeType),
				},
			})
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Text)},
		})
	}
	return contents
}
