package quotas

import (
	"context"
	"testing"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQuotaRepo struct {
	facility *models.ScribeQuota
	user     *models.ScribeQuota
	saves    int
}

func (f *fakeQuotaRepo) FindFacilityDefault(ctx context.Context, facilityID string) (*models.ScribeQuota, error) {
	return f.facility, nil
}

func (f *fakeQuotaRepo) FindByUserAndFacility(ctx context.Context, userID, facilityID string) (*models.ScribeQuota, error) {
	return f.user, nil
}

func (f *fakeQuotaRepo) Save(ctx context.Context, quota *models.ScribeQuota) error {
	f.saves++
	return nil
}

type fakeScribeRepo struct {
	scribes []models.Scribe
}

func (f *fakeScribeRepo) Create(ctx context.Context, scribe *models.Scribe) error { return nil }
func (f *fakeScribeRepo) FindByID(ctx context.Context, scribeID string) (*models.Scribe, error) {
	return nil, nil
}
func (f *fakeScribeRepo) Save(ctx context.Context, scribe *models.Scribe) error { return nil }
func (f *fakeScribeRepo) UpdateStatusIf(ctx context.Context, scribeID string, expected, next models.ScribeStatus) (bool, error) {
	return false, nil
}
func (f *fakeScribeRepo) ListByFacilityAndRange(ctx context.Context, facilityID, userID string, from, to time.Time) ([]models.Scribe, error) {
	var out []models.Scribe
	for _, s := range f.scribes {
		if s.FacilityID != facilityID {
			continue
		}
		if userID != "" && s.RequestedBy != userID {
			continue
		}
		if s.CreatedAt.Before(from) || s.CreatedAt.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeEntitlements struct {
	ocr bool
}

func (f *fakeEntitlements) OCREnabled(ctx context.Context, userID, facilityID string) (bool, error) {
	return f.ocr, nil
}

const termsHash = "current-terms-hash"

func newTestUsecase(quotaRepo *fakeQuotaRepo, scribeRepo *fakeScribeRepo, ocr bool) *quotaUsecase {
	uc := NewQuotaUsecase(quotaRepo, scribeRepo, &fakeEntitlements{ocr: ocr}, termsHash, zap.NewNop()).(*quotaUsecase)
	uc.Now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return uc
}

func healthyQuotas() *fakeQuotaRepo {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	return &fakeQuotaRepo{
		facility: &models.ScribeQuota{
			ID: "fq", FacilityID: "fac-1",
			Tokens: 10000, TokensPerUser: 1000, Used: 100,
			TimeModel: models.TimeModel{UpdatedAt: now},
		},
		user: &models.ScribeQuota{
			ID: "uq", UserID: "user-1", FacilityID: "fac-1",
			Used: 50, TncHash: termsHash,
			TimeModel: models.TimeModel{UpdatedAt: now},
		},
	}
}

func testScribe() *models.Scribe {
	return &models.Scribe{ID: "s1", RequestedBy: "user-1", FacilityID: "fac-1"}
}

func denialReason(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	custom, ok := err.(*exceptions.CustomError)
	require.True(t, ok)
	return custom.ClientMessage
}

func TestAuthorizeHappyPath(t *testing.T) {
	uc := newTestUsecase(healthyQuotas(), &fakeScribeRepo{}, false)
	assert.NoError(t, uc.Authorize(context.Background(), testScribe(), false))
}

func TestAuthorizeIsPure(t *testing.T) {
	repo := healthyQuotas()
	uc := newTestUsecase(repo, &fakeScribeRepo{}, false)

	first := uc.Authorize(context.Background(), testScribe(), false)
	second := uc.Authorize(context.Background(), testScribe(), false)

	assert.Equal(t, first, second)
	assert.Zero(t, repo.saves)
}

func TestAuthorizeDenialReasons(t *testing.T) {
	t.Run("missing facility quota", func(t *testing.T) {
		repo := healthyQuotas()
		repo.facility = nil
		uc := newTestUsecase(repo, &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), false)
		assert.Equal(t, constvars.ErrClientFacilityQuotaMissing, denialReason(t, err))
	})

	t.Run("missing user quota", func(t *testing.T) {
		repo := healthyQuotas()
		repo.user = nil
		uc := newTestUsecase(repo, &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), false)
		assert.Equal(t, constvars.ErrClientUserQuotaMissing, denialReason(t, err))
	})

	t.Run("stale terms acceptance", func(t *testing.T) {
		repo := healthyQuotas()
		repo.user.TncHash = "an-older-hash"
		uc := newTestUsecase(repo, &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), false)
		assert.Equal(t, constvars.ErrClientStaleTermsAcceptance, denialReason(t, err))
	})

	t.Run("facility quota exceeded", func(t *testing.T) {
		repo := healthyQuotas()
		repo.facility.Used = repo.facility.Tokens
		uc := newTestUsecase(repo, &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), false)
		assert.Equal(t, constvars.ErrClientFacilityQuotaExceeded, denialReason(t, err))
	})

	t.Run("user quota exceeded", func(t *testing.T) {
		repo := healthyQuotas()
		repo.user.Used = repo.facility.TokensPerUser
		uc := newTestUsecase(repo, &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), false)
		assert.Equal(t, constvars.ErrClientUserQuotaExceeded, denialReason(t, err))
	})

	t.Run("ocr not enabled", func(t *testing.T) {
		uc := newTestUsecase(healthyQuotas(), &fakeScribeRepo{}, false)
		err := uc.Authorize(context.Background(), testScribe(), true)
		assert.Equal(t, constvars.ErrClientOCRNotAllowed, denialReason(t, err))
	})

	t.Run("ocr enabled", func(t *testing.T) {
		uc := newTestUsecase(healthyQuotas(), &fakeScribeRepo{}, true)
		assert.NoError(t, uc.Authorize(context.Background(), testScribe(), true))
	})
}

func TestAuthorizeBenchmarkBypassesEverything(t *testing.T) {
	uc := newTestUsecase(&fakeQuotaRepo{}, &fakeScribeRepo{}, false)
	scribe := testScribe()
	scribe.Meta.Benchmark = true
	assert.NoError(t, uc.Authorize(context.Background(), scribe, true))
}

func TestAuthorizePeriodRollover(t *testing.T) {
	// Both quotas were exhausted last month and never touched since; the new
	// period's consumption is recomputed in memory from scribe counters.
	repo := healthyQuotas()
	lastMonth := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	repo.facility.Used = repo.facility.Tokens
	repo.facility.UpdatedAt = lastMonth
	repo.user.Used = repo.facility.TokensPerUser
	repo.user.UpdatedAt = lastMonth

	scribeRepo := &fakeScribeRepo{scribes: []models.Scribe{{
		RequestedBy: "user-1", FacilityID: "fac-1",
		ChatInputTokens: 10, ChatOutputTokens: 5,
		TimeModel: models.TimeModel{CreatedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
	}}}
	uc := newTestUsecase(repo, scribeRepo, false)

	assert.NoError(t, uc.Authorize(context.Background(), testScribe(), false))
	// Still a pure gate: nothing was persisted during the recompute.
	assert.Zero(t, repo.saves)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	repo := healthyQuotas()
	scribeRepo := &fakeScribeRepo{scribes: []models.Scribe{
		{
			RequestedBy: "user-1", FacilityID: "fac-1",
			ChatInputTokens: 100, ChatOutputTokens: 40,
			TimeModel: models.TimeModel{CreatedAt: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)},
		},
		{
			// Benchmark runs never count against quota.
			RequestedBy: "user-1", FacilityID: "fac-1",
			ChatInputTokens: 9999, ChatOutputTokens: 9999,
			Meta:            models.ScribeMeta{Benchmark: true},
			TimeModel:       models.TimeModel{CreatedAt: time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)},
		},
		{
			// Outside the period.
			RequestedBy: "user-1", FacilityID: "fac-1",
			ChatInputTokens: 500, ChatOutputTokens: 500,
			TimeModel: models.TimeModel{CreatedAt: time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)},
		},
	}}
	uc := newTestUsecase(repo, scribeRepo, false)

	from, to := models.PeriodBounds(uc.Now())
	require.NoError(t, uc.Recalculate(context.Background(), repo.user, from, to))
	assert.Equal(t, 140, repo.user.Used)

	require.NoError(t, uc.Recalculate(context.Background(), repo.user, from, to))
	assert.Equal(t, 140, repo.user.Used)
}

func TestAcceptTerms(t *testing.T) {
	repo := healthyQuotas()
	repo.user.TncHash = "an-older-hash"
	repo.user.TncAcceptedAt = nil
	uc := newTestUsecase(repo, &fakeScribeRepo{}, false)

	require.NoError(t, uc.AcceptTerms(context.Background(), "user-1", "fac-1"))
	assert.Equal(t, termsHash, repo.user.TncHash)
	require.NotNil(t, repo.user.TncAcceptedAt)
	assert.Equal(t, 1, repo.saves)
}

var _ contracts.QuotaRepository = (*fakeQuotaRepo)(nil)
var _ contracts.ScribeRepository = (*fakeScribeRepo)(nil)
var _ contracts.Entitlements = (*fakeEntitlements)(nil)
