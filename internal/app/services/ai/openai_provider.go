package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"scribe-service/internal/pkg/constvars"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// openAIProvider backs both the openai and azure families; they share the
// chat/whisper surface and differ only in client configuration.
type openAIProvider struct {
	name    string
	client  *openai.Client
	log     *zap.Logger
	limiter *rate.Limiter
}

func newOpenAIProvider(name string, client *openai.Client, log *zap.Logger, limiter *rate.Limiter) *openAIProvider {
	return &openAIProvider{
		name:    name,
		client:  client,
		log:     log,
		limiter: limiter,
	}
}

func (p *openAIProvider) Name() string { return p.name }

// The OpenAI family transcribes through the dedicated speech endpoint, so
// audio never rides along in the extraction content.
func (p *openAIProvider) NativeAudio() bool { return false }

func (p *openAIProvider) FieldBudget() int { return 50 }

func (p *openAIProvider) Transcribe(ctx context.Context, audio FilePayload, audioModel string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := p.client.CreateTranslation(ctx, openai.AudioRequest{
		Model:    audioModel,
		Reader:   bytes.NewReader(audio.Data),
		FilePath: "file." + audio.Format,
	})
	if err != nil {
		return "", fmt.Errorf(constvars.ErrDevProviderTranscription, err)
	}
	return resp.Text, nil
}

func (p *openAIProvider) Extract(ctx context.Context, in ExtractInput) (*ExtractResult, error) {
	messages := p.buildMessages(in.Messages)
	responseFormat, err := p.buildResponseFormat(in.Schema)
	if err != nil {
		return nil, err
	}

	request := openai.ChatCompletionRequest{
		Model:          in.ChatModel,
		Temperature:    in.Temperature,
		Messages:       messages,
		ResponseFormat: responseFormat,
	}

	result := &ExtractResult{}
	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := p.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", constvars.ErrDevProviderExtraction, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf(constvars.ErrDevProviderEmptyResponse)
		}

		choice := resp.Choices[0]
		switch choice.FinishReason {
		case openai.FinishReasonStop:
		case openai.FinishReasonContentFilter:
			return nil, fmt.Errorf("%w: %s", ErrRefused, choice.FinishReason)
		default:
			return nil, fmt.Errorf(constvars.ErrDevProviderFinishReason, choice.FinishReason)
		}

		var values map[string]interface{}
		if err := json.Unmarshal([]byte(choice.Message.Content), &values); err != nil {
			// Strict schema mode still occasionally yields truncated or
			// invalid JSON; re-issue the identical call exactly once.
			if attempt > 0 {
				return nil, fmt.Errorf(constvars.ErrDevProviderMalformedOutput, err)
			}
			p.log.Warn("malformed structured output, retrying extraction once",
				zap.String("provider", p.name),
				zap.Error(err),
			)
			result.Retries = attempt + 1
			continue
		}

		if transcription, ok := values[constvars.TranscriptionFieldKey].(string); ok {
			result.Transcription = transcription
			delete(values, constvars.TranscriptionFieldKey)
		}

		result.Values = values
		result.CompletionID = resp.ID
		result.Usage = TokenUsage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
		}
		if resp.Usage.PromptTokensDetails != nil {
			result.Usage.Cached = resp.Usage.PromptTokensDetails.CachedTokens
		}
		return result, nil
	}
}

func (p *openAIProvider) buildMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}

		if msg.File == nil {
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
			continue
		}

		encoded := base64.StdEncoding.EncodeToString(msg.File.Data)
		dataURI := fmt.Sprintf("data:%s/%s;base64,%s", msg.File.Kind, msg.File.Format, encoded)
		out = append(out, openai.ChatCompletionMessage{
			Role: role,
			MultiContent: []openai.ChatMessagePart{{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
			}},
		})
	}
	return out
}

// buildResponseFormat prepares the strict json_schema response format: every
// top-level property becomes required and additionalProperties is forced off,
// as the strict mode demands.
func (p *openAIProvider) buildResponseFormat(schema map[string]interface{}) (*openai.ChatCompletionResponseFormat, error) {
	prepared := SanitizeSchema(schema, false, true)

	var required []interface{}
	if properties, ok := prepared["properties"].(map[string]interface{}); ok {
		for key := range properties {
			required = append(required, key)
		}
	}
	prepared["required"] = required
	prepared["additionalProperties"] = false

	raw, err := json.Marshal(prepared)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", constvars.ErrDevCannotMarshalJSON, err)
	}

	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   constvars.ExtractionFunctionName,
			Schema: json.RawMessage(raw),
			Strict: true,
		},
	}, nil
}
