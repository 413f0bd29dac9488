package contracts

import (
	"context"

	"scribe-service/internal/app/models"
)

type ScribeFileRepository interface {
	FindByID(ctx context.Context, fileID string) (*models.ScribeFile, error)
	// ListByAssociating returns upload-completed files of one kind attached to
	// a scribe, in upload order.
	ListByAssociating(ctx context.Context, associatingID string, kind models.ScribeFileKind) ([]models.ScribeFile, error)
}

// FileStore fetches evidence bytes for files addressed by their metadata row.
type FileStore interface {
	FetchBytes(ctx context.Context, file *models.ScribeFile) ([]byte, error)
	// InternalExtension returns the format extension ("mp3", "png", ...)
	// derived from the file's internal name.
	InternalExtension(file *models.ScribeFile) string
}
