package contracts

import (
	"context"

	"scribe-service/internal/app/models"
)

// EventPublisher emits scribe status changes for downstream consumers
// (EMR sync, notifications). Publishing is best-effort: a publish failure
// never fails the pipeline.
type EventPublisher interface {
	PublishStatus(ctx context.Context, scribeID string, status models.ScribeStatus, reason string) error
}
