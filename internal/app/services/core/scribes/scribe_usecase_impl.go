package scribes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/dto/requests"
	"scribe-service/internal/pkg/dto/responses"
	"scribe-service/internal/pkg/exceptions"
	"scribe-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const enqueueGuardTTL = 10 * time.Minute

type scribeUsecase struct {
	ScribeRepository contracts.ScribeRepository
	RedisRepository  contracts.RedisRepository
	Enqueuer         contracts.TaskEnqueuer
	Log              *zap.Logger
}

func NewScribeUsecase(
	scribeRepository contracts.ScribeRepository,
	redisRepository contracts.RedisRepository,
	enqueuer contracts.TaskEnqueuer,
	logger *zap.Logger,
) contracts.ScribeUsecase {
	return &scribeUsecase{
		ScribeRepository: scribeRepository,
		RedisRepository:  redisRepository,
		Enqueuer:         enqueuer,
		Log:              logger,
	}
}

func (uc *scribeUsecase) CreateScribe(ctx context.Context, session *models.Session, request *requests.CreateScribe) (*responses.ScribeCreated, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	hasOverride := request.ChatModel != "" || request.AudioModel != "" || request.Temperature != nil || request.Benchmark
	if hasOverride && !session.IsAdmin() {
		return nil, exceptions.ErrNotPrivileged()
	}
	if request.ChatModel != "" {
		if err := validateModelIdentifier(request.ChatModel); err != nil {
			return nil, err
		}
	}

	var formData models.FormSchema
	if err := json.Unmarshal(request.FormData, &formData); err != nil {
		return nil, exceptions.ErrScribeFormInvalid(err)
	}
	if err := formData.Validate(); err != nil {
		return nil, exceptions.ErrScribeFormInvalid(err)
	}

	scribe := &models.Scribe{
		ID:          uuid.NewString(),
		RequestedBy: session.UserID,
		FacilityID:  session.FacilityID,
		EncounterID: request.EncounterID,
		FormData:    formData,
		Text:        request.Text,
		Transcript:  request.Transcript,
		Prompt:      request.Prompt,
		Status:      models.ScribeStatusCreated,
		ChatModel:   request.ChatModel,
		AudioModel:  request.AudioModel,
		Temperature: request.Temperature,
		Meta:        models.ScribeMeta{Benchmark: request.Benchmark},
	}

	if err := uc.ScribeRepository.Create(ctx, scribe); err != nil {
		return nil, err
	}

	uc.Log.Info("scribe created",
		zap.String("scribe_id", scribe.ID),
		zap.String("facility_id", scribe.FacilityID),
	)
	return &responses.ScribeCreated{ID: scribe.ID, Status: string(scribe.Status)}, nil
}

func (uc *scribeUsecase) GetScribeByID(ctx context.Context, session *models.Session, scribeID string) (*responses.Scribe, error) {
	scribe, err := uc.loadOwned(ctx, session, scribeID)
	if err != nil {
		return nil, err
	}

	return &responses.Scribe{
		ID:               scribe.ID,
		Status:           string(scribe.Status),
		Transcript:       scribe.Transcript,
		AIResponse:       scribe.AIResponse,
		Error:            scribe.Meta.Error,
		Provider:         scribe.Meta.Provider,
		ChatModel:        scribe.Meta.ChatModel,
		ChatInputTokens:  scribe.ChatInputTokens,
		ChatOutputTokens: scribe.ChatOutputTokens,
		CreatedAt:        scribe.CreatedAt,
		UpdatedAt:        scribe.UpdatedAt,
	}, nil
}

// MarkReady moves a scribe from created to ready and hands it to the worker.
// The SETNX guard keeps a double submit from enqueueing twice even though the
// conditional update already lost the race.
func (uc *scribeUsecase) MarkReady(ctx context.Context, session *models.Session, scribeID string) error {
	scribe, err := uc.loadOwned(ctx, session, scribeID)
	if err != nil {
		return err
	}

	moved, err := uc.ScribeRepository.UpdateStatusIf(ctx, scribeID, models.ScribeStatusCreated, models.ScribeStatusReady)
	if err != nil {
		return err
	}
	if !moved {
		return exceptions.ErrScribeInvalidStatus(string(scribe.Status), string(models.ScribeStatusReady))
	}

	guardKey := fmt.Sprintf(constvars.RedisKeyScribeEnqueueFormat, scribeID)
	acquired, err := uc.RedisRepository.TrySetNX(ctx, guardKey, "1", enqueueGuardTTL)
	if err != nil {
		return err
	}
	if !acquired {
		uc.Log.Info("scribe already enqueued, skipping", zap.String("scribe_id", scribeID))
		return nil
	}

	if err := uc.Enqueuer.EnqueueProcess(ctx, scribeID); err != nil {
		return exceptions.ErrEnqueueScribe(err)
	}
	return nil
}

func (uc *scribeUsecase) SubmitFeedback(ctx context.Context, session *models.Session, scribeID string, request *requests.ScribeFeedback) error {
	if err := utils.ValidateStruct(request); err != nil {
		return exceptions.ErrInputValidation(err)
	}

	scribe, err := uc.loadOwned(ctx, session, scribeID)
	if err != nil {
		return err
	}

	positive := request.Positive
	scribe.FeedbackPositive = &positive
	scribe.FeedbackComments = request.Comments
	return uc.ScribeRepository.Save(ctx, scribe)
}

func (uc *scribeUsecase) loadOwned(ctx context.Context, session *models.Session, scribeID string) (*models.Scribe, error) {
	scribe, err := uc.ScribeRepository.FindByID(ctx, scribeID)
	if err != nil {
		return nil, err
	}
	if scribe == nil {
		return nil, exceptions.ErrScribeNotFound(nil)
	}
	if scribe.RequestedBy != session.UserID && !session.IsAdmin() {
		return nil, exceptions.ErrScribeNotFound(nil)
	}
	return scribe, nil
}

// validateModelIdentifier checks the provider/model override format up front
// so a bad override fails the request, not the background job.
func validateModelIdentifier(identifier string) error {
	parts := strings.SplitN(identifier, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return exceptions.ErrInvalidModelIdentifier(identifier)
	}
	switch parts[0] {
	case constvars.ProviderOpenAI, constvars.ProviderAzure, constvars.ProviderGoogle:
		return nil
	}
	return exceptions.ErrInvalidProviderName(parts[0])
}
