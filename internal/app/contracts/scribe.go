package contracts

import (
	"context"
	"time"

	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/dto/requests"
	"scribe-service/internal/pkg/dto/responses"
)

type ScribeUsecase interface {
	CreateScribe(ctx context.Context, session *models.Session, request *requests.CreateScribe) (*responses.ScribeCreated, error)
	GetScribeByID(ctx context.Context, session *models.Session, scribeID string) (*responses.Scribe, error)
	// MarkReady moves created to ready and enqueues the processing task,
	// deduplicated so a double submit enqueues once.
	MarkReady(ctx context.Context, session *models.Session, scribeID string) error
	SubmitFeedback(ctx context.Context, session *models.Session, scribeID string, request *requests.ScribeFeedback) error
}

// ScribeProcessor runs the full pipeline for one scribe. Invoked from the
// background worker, exactly one invocation per ready transition.
type ScribeProcessor interface {
	Process(ctx context.Context, scribeID string) error
}

// TaskEnqueuer hands a scribe off to the background worker.
type TaskEnqueuer interface {
	EnqueueProcess(ctx context.Context, scribeID string) error
}

type ScribeRepository interface {
	Create(ctx context.Context, scribe *models.Scribe) error
	FindByID(ctx context.Context, scribeID string) (*models.Scribe, error)
	// Save persists the full scribe document.
	Save(ctx context.Context, scribe *models.Scribe) error
	// UpdateStatusIf transitions the scribe only when its stored status still
	// equals expected; returns false when the guard did not match. This is the
	// optimistic entry lock for processing.
	UpdateStatusIf(ctx context.Context, scribeID string, expected, next models.ScribeStatus) (bool, error)
	// ListByFacilityAndRange lists scribes created in [from, to] for one
	// facility, optionally narrowed to one requesting user (empty means all).
	ListByFacilityAndRange(ctx context.Context, facilityID, userID string, from, to time.Time) ([]models.Scribe, error)
}
