package quotas

import (
	"context"

	"scribe-service/internal/app/contracts"
)

// quotaFlagEntitlements reads OCR permission from the quota rows themselves;
// either the user or the facility quota carrying the flag grants access. A
// feature-flag backed implementation can replace it without touching the
// authorization flow.
type quotaFlagEntitlements struct {
	QuotaRepository contracts.QuotaRepository
}

func NewQuotaFlagEntitlements(quotaRepository contracts.QuotaRepository) contracts.Entitlements {
	return &quotaFlagEntitlements{QuotaRepository: quotaRepository}
}

func (e *quotaFlagEntitlements) OCREnabled(ctx context.Context, userID, facilityID string) (bool, error) {
	userQuota, err := e.QuotaRepository.FindByUserAndFacility(ctx, userID, facilityID)
	if err != nil {
		return false, err
	}
	if userQuota != nil && userQuota.AllowOCR {
		return true, nil
	}

	facilityQuota, err := e.QuotaRepository.FindFacilityDefault(ctx, facilityID)
	if err != nil {
		return false, err
	}
	return facilityQuota != nil && facilityQuota.AllowOCR, nil
}
