package scribes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scribe-service/internal/app/config"
	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/app/services/ai"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"
	"scribe-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const basePrompt = `You will receive a patient's encounter in the form of text, audio, or image. Your task is to extract all relevant data and populate the specified form fields accordingly. Follow the instructions and rules meticulously to ensure accuracy and compliance.

Instructions:
1. Analyze the encounter content thoroughly to identify and extract valid data.
2. Use readable terms for coded entries (e.g., convert "A32Q Brain Hemorrhage" to "Brain Hemorrhage").
3. If the encounter contains non-English content, translate it to English before processing.
4. If the audio or image contains no relevant data, return an empty string for the transcription field, and do not assume any context or information.
5. You do not have to fill all fields. Only fill the fields that are relevant to the encounter. Let the rest have a null value.

Notes Handling:
- Populate the ` + "`note`" + ` field only if there is additional context that cannot be captured in the ` + "`value`" + `.
- For example, if the encounter states, "Patient's SPO2 is 20%, but had spiked to 50% an hour ago," then you should fill ` + "`value: 20%`" + ` and ` + "`note: Spiked to 50% an hour ago`" + `.
- If the encounter simply states, "Patient's SPO2 is 20%," set note as null.
- If additional context does not exist beyond the value, set ` + "`note`" + ` field to null.

Current Date and Time: {current_date_time}`

const (
	transcriptionDescDefault    = "The transcription of the audio"
	transcriptionDescSummarized = "A short summarized transcription of the %s content, focusing on key points and insights in English."

	// Past this length a full transcription would eat too many output tokens,
	// so only a summarized one is requested.
	longAudioThresholdMS = 3 * 60 * 1000
)

// ProviderFactory builds the backend adapter for one job invocation.
type ProviderFactory interface {
	Build(ctx context.Context, providerName string) (ai.Provider, error)
}

type processor struct {
	ScribeRepository contracts.ScribeRepository
	FileRepository   contracts.ScribeFileRepository
	FileStore        contracts.FileStore
	QuotaUsecase     contracts.QuotaUsecase
	Providers        ProviderFactory
	Events           contracts.EventPublisher
	Config           config.Scribe
	Log              *zap.Logger
	Now              func() time.Time
}

func NewProcessor(
	scribeRepository contracts.ScribeRepository,
	fileRepository contracts.ScribeFileRepository,
	fileStore contracts.FileStore,
	quotaUsecase contracts.QuotaUsecase,
	providers ProviderFactory,
	events contracts.EventPublisher,
	cfg config.Scribe,
	logger *zap.Logger,
) contracts.ScribeProcessor {
	return &processor{
		ScribeRepository: scribeRepository,
		FileRepository:   fileRepository,
		FileStore:        fileStore,
		QuotaUsecase:     quotaUsecase,
		Providers:        providers,
		Events:           events,
		Config:           cfg,
		Log:              logger,
		Now:              time.Now,
	}
}

type effectiveSettings struct {
	Provider    string
	ChatModel   string
	AudioModel  string
	Temperature float32
}

// Process runs the whole pipeline for one scribe. The job is the fault
// isolation unit: every failure lands in the scribe document and the method
// returns nil so the queue never re-runs a terminally failed scribe.
func (p *processor) Process(ctx context.Context, scribeID string) error {
	scribe, err := p.ScribeRepository.FindByID(ctx, scribeID)
	if err != nil {
		return err
	}
	if scribe == nil {
		p.Log.Warn("scribe vanished before processing", zap.String("scribe_id", scribeID))
		return nil
	}
	if scribe.Status != models.ScribeStatusReady {
		// Not an error: a duplicate delivery or a mid-flight scribe.
		p.Log.Info("scribe not in READY state, skipping",
			zap.String("scribe_id", scribeID),
			zap.String("status", string(scribe.Status)),
		)
		return nil
	}

	settings, err := p.resolveEffective(scribe)
	if err != nil {
		return p.fail(ctx, scribe, err)
	}

	provider, err := p.Providers.Build(ctx, settings.Provider)
	if err != nil {
		return p.fail(ctx, scribe, err)
	}

	audioFiles, err := p.FileRepository.ListByAssociating(ctx, scribe.ID, models.ScribeFileAudio)
	if err != nil {
		return p.fail(ctx, scribe, err)
	}
	documentFiles, err := p.FileRepository.ListByAssociating(ctx, scribe.ID, models.ScribeFileDocument)
	if err != nil {
		return p.fail(ctx, scribe, err)
	}

	if err := p.QuotaUsecase.Authorize(ctx, scribe, len(documentFiles) > 0); err != nil {
		return p.fail(ctx, scribe, err)
	}

	chunks := scribe.FormData.Chunk(provider.FieldBudget())

	scribe.Meta.Provider = settings.Provider
	scribe.Meta.ChatModel = settings.ChatModel
	scribe.Meta.Error = ""
	scribe.Meta.Thinking = ""
	if !provider.NativeAudio() {
		scribe.Meta.AudioModel = settings.AudioModel
	}

	moved, err := p.ScribeRepository.UpdateStatusIf(ctx, scribe.ID, models.ScribeStatusReady, models.ScribeStatusGeneratingTranscript)
	if err != nil {
		return err
	}
	if !moved {
		p.Log.Info("scribe taken by a concurrent run, skipping", zap.String("scribe_id", scribe.ID))
		return nil
	}
	scribe.Status = models.ScribeStatusGeneratingTranscript
	if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
		return p.fail(ctx, scribe, err)
	}

	startedAt := p.Now()

	var audioPayloads []ai.FilePayload
	totalAudioMS := int64(0)
	for i := range audioFiles {
		totalAudioMS += audioFiles[i].AudioLengthMS()
	}

	if scribe.Transcript == "" && len(audioFiles) > 0 {
		if provider.NativeAudio() {
			audioPayloads, err = p.loadPayloads(ctx, audioFiles, ai.FileKindAudio)
			if err != nil {
				return p.fail(ctx, scribe, err)
			}
		} else {
			transcript, err := p.transcribeAll(ctx, provider, audioFiles, settings.AudioModel)
			if err != nil {
				return p.fail(ctx, scribe, err)
			}
			scribe.Transcript = transcript
			scribe.Meta.TranscriptionSeconds = p.Now().Sub(startedAt).Seconds()
			if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
				return p.fail(ctx, scribe, err)
			}
		}
	}

	documentPayloads, err := p.loadPayloads(ctx, documentFiles, ai.FileKindImage)
	if err != nil {
		return p.fail(ctx, scribe, err)
	}

	scribe.Status = models.ScribeStatusGeneratingAIResponse
	if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
		return p.fail(ctx, scribe, err)
	}

	prompt := basePrompt
	if scribe.Prompt != "" {
		prompt = scribe.Prompt
	}
	prompt = strings.ReplaceAll(prompt, "{current_date_time}", p.Now().Format(time.RFC3339))

	transcriptionDesc := transcriptionDescDefault
	if len(documentFiles) > 0 {
		transcriptionDesc = fmt.Sprintf(transcriptionDescSummarized, "image")
	} else if totalAudioMS > longAudioThresholdMS {
		transcriptionDesc = fmt.Sprintf(transcriptionDescSummarized, "audio")
	}
	wantTranscription := len(documentPayloads) > 0 || len(audioPayloads) > 0

	messages := ai.AssembleMessages(ai.ContentInput{
		Prompt:        prompt,
		Text:          scribe.Text,
		Transcript:    scribe.Transcript,
		AudioFiles:    audioPayloads,
		DocumentFiles: documentPayloads,
	})

	completionStart := p.Now()
	accumulated := make(map[string]interface{})

	for i, fragment := range chunks {
		target := ai.BuildTargetSchema(fragment, wantTranscription && i == 0, transcriptionDesc)

		cacheKey, err := schemaCacheKey(target.Schema, settings.ChatModel)
		if err != nil {
			return p.fail(ctx, scribe, err)
		}

		record := models.ProcessingRecord{
			ChunkIndex:   i,
			Provider:     settings.Provider,
			ChatModel:    settings.ChatModel,
			Prompt:       prompt,
			TargetSchema: target.Schema,
		}

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(p.Config.CallTimeoutSecs)*time.Second)
		callStart := p.Now()
		result, err := provider.Extract(callCtx, ai.ExtractInput{
			Messages:    messages,
			ChatModel:   settings.ChatModel,
			Schema:      target.Schema,
			Temperature: settings.Temperature,
			CacheKey:    cacheKey,
		})
		cancel()
		record.DurationSeconds = p.Now().Sub(callStart).Seconds()

		if err != nil {
			record.Error = err.Error()
			scribe.AppendRecord(record)
			if errors.Is(err, ai.ErrRefused) {
				return p.finishRefused(ctx, scribe, err)
			}
			return p.fail(ctx, scribe, err)
		}

		record.InputTokens = result.Usage.Input
		record.OutputTokens = result.Usage.Output
		record.CachedTokens = result.Usage.Cached
		record.CompletionID = result.CompletionID
		record.Retries = result.Retries
		scribe.AppendRecord(record)

		// Answers accumulate locally; the committed aiResponse only lands on
		// full success of all chunks.
		for id, value := range ai.Reassemble(target.FieldIDs, result.Values) {
			accumulated[id] = value
		}

		if i == 0 && scribe.Transcript == "" && result.Transcription != "" {
			scribe.Transcript = result.Transcription
		}
		if result.CacheName != "" {
			scribe.Meta.CacheName = result.CacheName
		}
		if result.Thinking != "" {
			scribe.Meta.Thinking = result.Thinking
		}
		scribe.Meta.Retries += result.Retries
		scribe.ChatInputTokens += result.Usage.Input
		scribe.ChatOutputTokens += result.Usage.Output

		if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
			return p.fail(ctx, scribe, err)
		}
	}

	scribe.AIResponse = accumulated
	scribe.Meta.CompletionSeconds = p.Now().Sub(completionStart).Seconds()
	scribe.Status = models.ScribeStatusCompleted
	if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
		return err
	}
	p.publish(ctx, scribe, "")

	if !scribe.IsBenchmark() {
		if err := p.QuotaUsecase.RecalculateOwners(ctx, scribe.RequestedBy, scribe.FacilityID); err != nil {
			// Usage converges on the next recomputation; do not fail the job.
			p.Log.Error(constvars.ErrDevQuotaRecalculate,
				zap.String("scribe_id", scribe.ID),
				zap.Error(err),
			)
		}
	}

	p.Log.Info("scribe completed",
		zap.String("scribe_id", scribe.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("input_tokens", scribe.ChatInputTokens),
		zap.Int("output_tokens", scribe.ChatOutputTokens),
	)
	return nil
}

// resolveEffective applies the persisted override on top of the configured
// defaults. An openai override silently routes to azure when azure
// credentials are configured, matching how deployments pin one of the two.
func (p *processor) resolveEffective(scribe *models.Scribe) (*effectiveSettings, error) {
	settings := &effectiveSettings{
		Provider:   p.Config.Provider,
		ChatModel:  p.Config.ChatModelName,
		AudioModel: p.Config.AudioModelName,
	}

	if scribe.ChatModel != "" {
		parts := strings.SplitN(scribe.ChatModel, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, exceptions.ErrInvalidModelIdentifier(scribe.ChatModel)
		}
		settings.Provider = parts[0]
		settings.ChatModel = parts[1]
		if settings.Provider == constvars.ProviderOpenAI && p.Config.AzureAPIKey != "" {
			settings.Provider = constvars.ProviderAzure
		}
	}
	if scribe.AudioModel != "" {
		settings.AudioModel = scribe.AudioModel
	}
	if scribe.Temperature != nil {
		settings.Temperature = *scribe.Temperature
	}
	return settings, nil
}

func (p *processor) transcribeAll(ctx context.Context, provider ai.Provider, files []models.ScribeFile, audioModel string) (string, error) {
	transcript := ""
	for i := range files {
		data, err := p.FileStore.FetchBytes(ctx, &files[i])
		if err != nil {
			return "", err
		}
		payload := ai.FilePayload{
			Kind:   ai.FileKindAudio,
			Format: p.FileStore.InternalExtension(&files[i]),
			Data:   data,
		}
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(p.Config.CallTimeoutSecs)*time.Second)
		text, err := provider.Transcribe(callCtx, payload, audioModel)
		cancel()
		if err != nil {
			return "", fmt.Errorf(constvars.ErrDevProviderTranscription, err)
		}
		transcript += text
	}
	return transcript, nil
}

func (p *processor) loadPayloads(ctx context.Context, files []models.ScribeFile, kind ai.FileKind) ([]ai.FilePayload, error) {
	if len(files) == 0 {
		return nil, nil
	}
	payloads := make([]ai.FilePayload, 0, len(files))
	for i := range files {
		data, err := p.FileStore.FetchBytes(ctx, &files[i])
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, ai.FilePayload{
			Kind:   kind,
			Format: p.FileStore.InternalExtension(&files[i]),
			Data:   data,
		})
	}
	return payloads, nil
}

func (p *processor) fail(ctx context.Context, scribe *models.Scribe, cause error) error {
	reason := cause.Error()
	var custom *exceptions.CustomError
	if errors.As(cause, &custom) {
		reason = custom.ClientMessage
	}

	p.Log.Error("scribe processing failed",
		zap.String("scribe_id", scribe.ID),
		zap.String("status", string(scribe.Status)),
		zap.Error(cause),
	)

	scribe.Meta.Error = reason
	scribe.Status = models.ScribeStatusFailed
	if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
		return err
	}
	p.publish(ctx, scribe, reason)
	return nil
}

func (p *processor) finishRefused(ctx context.Context, scribe *models.Scribe, cause error) error {
	reason := cause.Error()
	scribe.Meta.Error = reason
	scribe.Status = models.ScribeStatusRefused
	if err := p.ScribeRepository.Save(ctx, scribe); err != nil {
		return err
	}
	p.publish(ctx, scribe, reason)
	return nil
}

func (p *processor) publish(ctx context.Context, scribe *models.Scribe, reason string) {
	if p.Events == nil {
		return
	}
	// Best effort; the publisher logs its own failures.
	_ = p.Events.PublishStatus(ctx, scribe.ID, scribe.Status, reason)
}

// schemaCacheKey is the stable hash backends with server-side context caching
// key their cache entries on. Map keys marshal in sorted order, so the same
// schema and model always produce the same key.
func schemaCacheKey(schema map[string]interface{}, chatModel string) (string, error) {
	serialized, err := json.Marshal(schema)
	if err != nil {
		return "", exceptions.ErrCannotMarshalJSON(err)
	}
	return utils.HashString(string(serialized) + chatModel), nil
}
