package quotas

import (
	"context"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/dto/responses"
	"scribe-service/internal/pkg/exceptions"

	"go.uber.org/zap"
)

type quotaUsecase struct {
	QuotaRepository  contracts.QuotaRepository
	ScribeRepository contracts.ScribeRepository
	Entitlements     contracts.Entitlements
	TermsHash        string
	Log              *zap.Logger
	Now              func() time.Time
}

func NewQuotaUsecase(
	quotaRepository contracts.QuotaRepository,
	scribeRepository contracts.ScribeRepository,
	entitlements contracts.Entitlements,
	termsHash string,
	logger *zap.Logger,
) contracts.QuotaUsecase {
	return &quotaUsecase{
		QuotaRepository:  quotaRepository,
		ScribeRepository: scribeRepository,
		Entitlements:     entitlements,
		TermsHash:        termsHash,
		Log:              logger,
		Now:              time.Now,
	}
}

// Authorize runs the ordered quota checks. It reads but never writes, so
// calling it twice against unchanged state yields the same decision.
func (uc *quotaUsecase) Authorize(ctx context.Context, scribe *models.Scribe, hasDocuments bool) error {
	if scribe.IsBenchmark() {
		return nil
	}

	facilityQuota, err := uc.QuotaRepository.FindFacilityDefault(ctx, scribe.FacilityID)
	if err != nil {
		return err
	}
	if facilityQuota == nil {
		return exceptions.ErrQuotaDenied(constvars.ErrClientFacilityQuotaMissing)
	}

	userQuota, err := uc.QuotaRepository.FindByUserAndFacility(ctx, scribe.RequestedBy, scribe.FacilityID)
	if err != nil {
		return err
	}
	if userQuota == nil {
		return exceptions.ErrQuotaDenied(constvars.ErrClientUserQuotaMissing)
	}

	if userQuota.TncHash != uc.TermsHash {
		return exceptions.ErrQuotaDenied(constvars.ErrClientStaleTermsAcceptance)
	}

	now := uc.Now()
	facilityUsed, err := uc.effectiveUsed(ctx, facilityQuota, now)
	if err != nil {
		return err
	}
	if facilityUsed >= facilityQuota.Tokens {
		return exceptions.ErrQuotaDenied(constvars.ErrClientFacilityQuotaExceeded)
	}

	userUsed, err := uc.effectiveUsed(ctx, userQuota, now)
	if err != nil {
		return err
	}
	if userUsed >= facilityQuota.TokensPerUser {
		return exceptions.ErrQuotaDenied(constvars.ErrClientUserQuotaExceeded)
	}

	if hasDocuments {
		allowed, err := uc.Entitlements.OCREnabled(ctx, scribe.RequestedBy, scribe.FacilityID)
		if err != nil {
			return err
		}
		if !allowed {
			return exceptions.ErrQuotaDenied(constvars.ErrClientOCRNotAllowed)
		}
	}

	return nil
}

// effectiveUsed returns the quota's consumption for the accounting period
// containing now. A quota last written before the period started has rolled
// over; its usage is recomputed in memory without persisting.
func (uc *quotaUsecase) effectiveUsed(ctx context.Context, quota *models.ScribeQuota, now time.Time) (int, error) {
	start, end := models.PeriodBounds(now)
	if !quota.UpdatedAt.Before(start) {
		return quota.Used, nil
	}
	return uc.sumUsage(ctx, quota, start, end)
}

func (uc *quotaUsecase) sumUsage(ctx context.Context, quota *models.ScribeQuota, from, to time.Time) (int, error) {
	scribes, err := uc.ScribeRepository.ListByFacilityAndRange(ctx, quota.FacilityID, quota.UserID, from, to)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range scribes {
		if scribes[i].IsBenchmark() {
			continue
		}
		total += scribes[i].ChatInputTokens + scribes[i].ChatOutputTokens
	}
	return total, nil
}

// Recalculate writes the recomputed period usage back onto the quota. It is a
// pure recomputation, never an increment, so redundant calls converge.
func (uc *quotaUsecase) Recalculate(ctx context.Context, quota *models.ScribeQuota, from, to time.Time) error {
	used, err := uc.sumUsage(ctx, quota, from, to)
	if err != nil {
		uc.Log.Error(constvars.ErrDevQuotaRecalculate,
			zap.String("quota_id", quota.ID),
			zap.Error(err),
		)
		return err
	}
	quota.Used = used
	quota.UpdatedAt = uc.Now()
	return uc.QuotaRepository.Save(ctx, quota)
}

func (uc *quotaUsecase) RecalculateOwners(ctx context.Context, userID, facilityID string) error {
	from, to := models.PeriodBounds(uc.Now())

	if userQuota, err := uc.QuotaRepository.FindByUserAndFacility(ctx, userID, facilityID); err != nil {
		return err
	} else if userQuota != nil {
		if err := uc.Recalculate(ctx, userQuota, from, to); err != nil {
			return err
		}
	}

	if facilityQuota, err := uc.QuotaRepository.FindFacilityDefault(ctx, facilityID); err != nil {
		return err
	} else if facilityQuota != nil {
		if err := uc.Recalculate(ctx, facilityQuota, from, to); err != nil {
			return err
		}
	}
	return nil
}

func (uc *quotaUsecase) Snapshot(ctx context.Context, userID, facilityID string) (*responses.QuotaSnapshot, error) {
	facilityQuota, err := uc.QuotaRepository.FindFacilityDefault(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	userQuota, err := uc.QuotaRepository.FindByUserAndFacility(ctx, userID, facilityID)
	if err != nil {
		return nil, err
	}
	if facilityQuota == nil && userQuota == nil {
		return nil, exceptions.ErrQuotaNotFound(nil)
	}

	now := uc.Now()
	snapshot := &responses.QuotaSnapshot{}
	if facilityQuota != nil {
		used, err := uc.effectiveUsed(ctx, facilityQuota, now)
		if err != nil {
			return nil, err
		}
		snapshot.FacilityTokens = facilityQuota.Tokens
		snapshot.FacilityTokensUsed = used
		snapshot.UserTokensAllowed = facilityQuota.TokensPerUser
		snapshot.AllowOCR = facilityQuota.AllowOCR
	}
	if userQuota != nil {
		used, err := uc.effectiveUsed(ctx, userQuota, now)
		if err != nil {
			return nil, err
		}
		snapshot.UserTokensUsed = used
		snapshot.AllowOCR = snapshot.AllowOCR || userQuota.AllowOCR
		snapshot.TermsAccepted = userQuota.TncHash == uc.TermsHash
		snapshot.TermsAcceptedAt = userQuota.TncAcceptedAt
	}
	return snapshot, nil
}

func (uc *quotaUsecase) AcceptTerms(ctx context.Context, userID, facilityID string) error {
	userQuota, err := uc.QuotaRepository.FindByUserAndFacility(ctx, userID, facilityID)
	if err != nil {
		return err
	}
	if userQuota == nil {
		return exceptions.ErrQuotaNotFound(nil)
	}

	now := uc.Now()
	userQuota.TncHash = uc.TermsHash
	userQuota.TncAcceptedAt = &now
	userQuota.UpdatedAt = now
	return uc.QuotaRepository.Save(ctx, userQuota)
}
