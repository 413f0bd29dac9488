package contracts

import (
	"context"
	"time"

	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/dto/responses"
)

type QuotaUsecase interface {
	// Authorize is the pure quota gate consulted before processing. It never
	// writes; each failed check yields a specific denial reason.
	Authorize(ctx context.Context, scribe *models.Scribe, hasDocuments bool) error
	// Recalculate recomputes the owner's usage for the period from scribe
	// token counters and persists it. Safe to call redundantly.
	Recalculate(ctx context.Context, quota *models.ScribeQuota, from, to time.Time) error
	// RecalculateOwners refreshes both the user and the facility quota for
	// the current period.
	RecalculateOwners(ctx context.Context, userID, facilityID string) error
	Snapshot(ctx context.Context, userID, facilityID string) (*responses.QuotaSnapshot, error)
	AcceptTerms(ctx context.Context, userID, facilityID string) error
}

type QuotaRepository interface {
	// FindFacilityDefault returns the facility's user-less quota, nil when absent.
	FindFacilityDefault(ctx context.Context, facilityID string) (*models.ScribeQuota, error)
	// FindByUserAndFacility returns the user's quota scoped to a facility, nil when absent.
	FindByUserAndFacility(ctx context.Context, userID, facilityID string) (*models.ScribeQuota, error)
	Save(ctx context.Context, quota *models.ScribeQuota) error
}

// Entitlements is the pluggable capability check consulted for OCR access.
// The default implementation reads the quota-level flags; a feature-flag
// backed implementation can be substituted without touching the guard.
type Entitlements interface {
	OCREnabled(ctx context.Context, userID, facilityID string) (bool, error)
}
