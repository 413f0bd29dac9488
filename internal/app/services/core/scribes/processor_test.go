package scribes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scribe-service/internal/app/config"
	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/app/services/ai"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/dto/responses"
	"scribe-service/internal/pkg/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryScribeRepo struct {
	scribes map[string]*models.Scribe
}

func newMemoryScribeRepo(scribes ...*models.Scribe) *memoryScribeRepo {
	repo := &memoryScribeRepo{scribes: make(map[string]*models.Scribe)}
	for _, s := range scribes {
		repo.scribes[s.ID] = s
	}
	return repo
}

func (r *memoryScribeRepo) Create(ctx context.Context, scribe *models.Scribe) error {
	r.scribes[scribe.ID] = scribe
	return nil
}

func (r *memoryScribeRepo) FindByID(ctx context.Context, scribeID string) (*models.Scribe, error) {
	return r.scribes[scribeID], nil
}

func (r *memoryScribeRepo) Save(ctx context.Context, scribe *models.Scribe) error {
	r.scribes[scribe.ID] = scribe
	return nil
}

func (r *memoryScribeRepo) UpdateStatusIf(ctx context.Context, scribeID string, expected, next models.ScribeStatus) (bool, error) {
	scribe, ok := r.scribes[scribeID]
	if !ok || scribe.Status != expected {
		return false, nil
	}
	scribe.Status = next
	return true, nil
}

func (r *memoryScribeRepo) ListByFacilityAndRange(ctx context.Context, facilityID, userID string, from, to time.Time) ([]models.Scribe, error) {
	return nil, nil
}

type memoryFileRepo struct {
	files []models.ScribeFile
}

func (r *memoryFileRepo) FindByID(ctx context.Context, fileID string) (*models.ScribeFile, error) {
	for i := range r.files {
		if r.files[i].ID == fileID {
			return &r.files[i], nil
		}
	}
	return nil, nil
}

func (r *memoryFileRepo) ListByAssociating(ctx context.Context, associatingID string, kind models.ScribeFileKind) ([]models.ScribeFile, error) {
	var out []models.ScribeFile
	for _, f := range r.files {
		if f.AssociatingID == associatingID && f.Kind == kind && f.UploadDone {
			out = append(out, f)
		}
	}
	return out, nil
}

type memoryFileStore struct{}

func (s *memoryFileStore) FetchBytes(ctx context.Context, file *models.ScribeFile) ([]byte, error) {
	return []byte("bytes-of-" + file.ID), nil
}

func (s *memoryFileStore) InternalExtension(file *models.ScribeFile) string {
	return "mp3"
}

type fakeQuotaUsecase struct {
	authorizeErr error
	authorized   int
	recalculated int
}

func (f *fakeQuotaUsecase) Authorize(ctx context.Context, scribe *models.Scribe, hasDocuments bool) error {
	f.authorized++
	return f.authorizeErr
}

func (f *fakeQuotaUsecase) Recalculate(ctx context.Context, quota *models.ScribeQuota, from, to time.Time) error {
	return nil
}

func (f *fakeQuotaUsecase) RecalculateOwners(ctx context.Context, userID, facilityID string) error {
	f.recalculated++
	return nil
}

func (f *fakeQuotaUsecase) Snapshot(ctx context.Context, userID, facilityID string) (*responses.QuotaSnapshot, error) {
	return nil, nil
}

func (f *fakeQuotaUsecase) AcceptTerms(ctx context.Context, userID, facilityID string) error {
	return nil
}

type fakeProvider struct {
	nativeAudio bool
	budget      int
	transcripts int
	extractions []ai.ExtractInput
	extract     func(call int, in ai.ExtractInput) (*ai.ExtractResult, error)
}

func (p *fakeProvider) Name() string      { return constvars.ProviderOpenAI }
func (p *fakeProvider) NativeAudio() bool { return p.nativeAudio }
func (p *fakeProvider) FieldBudget() int  { return p.budget }

func (p *fakeProvider) Transcribe(ctx context.Context, audio ai.FilePayload, audioModel string) (string, error) {
	p.transcripts++
	return "patient reports mild chest pain", nil
}

func (p *fakeProvider) Extract(ctx context.Context, in ai.ExtractInput) (*ai.ExtractResult, error) {
	call := len(p.extractions)
	p.extractions = append(p.extractions, in)
	return p.extract(call, in)
}

type fakeFactory struct {
	provider *fakeProvider
}

func (f *fakeFactory) Build(ctx context.Context, providerName string) (ai.Provider, error) {
	return f.provider, nil
}

func fillAllFields(call int, in ai.ExtractInput) (*ai.ExtractResult, error) {
	values := map[string]interface{}{}
	for key := range in.Schema["properties"].(map[string]interface{}) {
		if key == constvars.TranscriptionFieldKey {
			continue
		}
		values[key] = "filled"
	}
	return &ai.ExtractResult{
		Values: values,
		Usage:  ai.TokenUsage{Input: 100, Output: 30},
	}, nil
}

func readyScribe(fieldCount int) *models.Scribe {
	fields := make([]models.FieldNode, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		fields = append(fields, models.FieldNode{Field: &models.Field{
			ID:     fmt.Sprintf("field-%d", i),
			Schema: map[string]interface{}{"type": "string"},
		}})
	}
	return &models.Scribe{
		ID:          "scribe-1",
		RequestedBy: "user-1",
		FacilityID:  "fac-1",
		FormData:    models.FormSchema{{Title: "Visit", Fields: fields}},
		Status:      models.ScribeStatusReady,
	}
}

func newTestProcessor(repo *memoryScribeRepo, files *memoryFileRepo, quota *fakeQuotaUsecase, provider *fakeProvider) contracts.ScribeProcessor {
	return NewProcessor(
		repo,
		files,
		&memoryFileStore{},
		quota,
		&fakeFactory{provider: provider},
		nil,
		config.Scribe{
			Provider:        constvars.ProviderOpenAI,
			ChatModelName:   "gpt-4o",
			AudioModelName:  "whisper-1",
			CallTimeoutSecs: 5,
		},
		zap.NewNop(),
	)
}

func TestProcessHappyPathWithAudio(t *testing.T) {
	scribe := readyScribe(2)
	repo := newMemoryScribeRepo(scribe)
	files := &memoryFileRepo{files: []models.ScribeFile{{
		ID: "audio-1", AssociatingID: scribe.ID, Kind: models.ScribeFileAudio,
		InternalName: "audio-1.mp3", UploadDone: true,
	}}}
	quota := &fakeQuotaUsecase{}
	provider := &fakeProvider{budget: 50, extract: fillAllFields}

	require.NoError(t, newTestProcessor(repo, files, quota, provider).Process(context.Background(), scribe.ID))

	assert.Equal(t, models.ScribeStatusCompleted, scribe.Status)
	assert.NotEmpty(t, scribe.Transcript)
	assert.Equal(t, 1, provider.transcripts)
	assert.Len(t, scribe.AIResponse, 2)
	assert.Contains(t, scribe.AIResponse, "field-0")
	assert.Contains(t, scribe.AIResponse, "field-1")
	assert.Positive(t, scribe.ChatInputTokens)
	assert.Positive(t, scribe.ChatOutputTokens)
	assert.Equal(t, 1, quota.recalculated)
}

func TestProcessStaleTermsDenial(t *testing.T) {
	scribe := readyScribe(2)
	repo := newMemoryScribeRepo(scribe)
	quota := &fakeQuotaUsecase{
		authorizeErr: exceptions.ErrQuotaDenied(constvars.ErrClientStaleTermsAcceptance),
	}
	provider := &fakeProvider{budget: 50, extract: fillAllFields}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, quota, provider).Process(context.Background(), scribe.ID))

	assert.Equal(t, models.ScribeStatusFailed, scribe.Status)
	assert.Equal(t, constvars.ErrClientStaleTermsAcceptance, scribe.Meta.Error)
	assert.Zero(t, provider.transcripts)
	assert.Empty(t, provider.extractions)
	assert.Zero(t, quota.recalculated)
}

func TestProcessChunksLargeSchema(t *testing.T) {
	scribe := readyScribe(45)
	repo := newMemoryScribeRepo(scribe)
	quota := &fakeQuotaUsecase{}
	provider := &fakeProvider{budget: 20, extract: fillAllFields}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, quota, provider).Process(context.Background(), scribe.ID))

	require.Len(t, provider.extractions, 3)
	sizes := make([]int, 0, 3)
	for _, in := range provider.extractions {
		sizes = append(sizes, len(in.Schema["properties"].(map[string]interface{})))
	}
	assert.Equal(t, []int{20, 20, 5}, sizes)

	assert.Equal(t, models.ScribeStatusCompleted, scribe.Status)
	assert.Len(t, scribe.AIResponse, 45)
	assert.Len(t, scribe.Meta.Records, 3)
	assert.Equal(t, 300, scribe.ChatInputTokens)
}

func TestProcessFatalFinishReason(t *testing.T) {
	scribe := readyScribe(2)
	repo := newMemoryScribeRepo(scribe)
	provider := &fakeProvider{budget: 50, extract: func(call int, in ai.ExtractInput) (*ai.ExtractResult, error) {
		return nil, fmt.Errorf(constvars.ErrDevProviderFinishReason, "length")
	}}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, &fakeQuotaUsecase{}, provider).Process(context.Background(), scribe.ID))

	assert.Equal(t, models.ScribeStatusFailed, scribe.Status)
	// Exactly one attempt, one record, no retry.
	assert.Len(t, provider.extractions, 1)
	require.Len(t, scribe.Meta.Records, 1)
	assert.NotEmpty(t, scribe.Meta.Records[0].Error)
	assert.Zero(t, scribe.Meta.Records[0].Retries)
	assert.Nil(t, scribe.AIResponse)
}

func TestProcessRecordsProviderRetry(t *testing.T) {
	scribe := readyScribe(2)
	repo := newMemoryScribeRepo(scribe)
	provider := &fakeProvider{budget: 50, extract: func(call int, in ai.ExtractInput) (*ai.ExtractResult, error) {
		result, err := fillAllFields(call, in)
		if err != nil {
			return nil, err
		}
		// The adapter already retried a malformed first answer internally.
		result.Retries = 1
		return result, nil
	}}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, &fakeQuotaUsecase{}, provider).Process(context.Background(), scribe.ID))

	assert.Equal(t, models.ScribeStatusCompleted, scribe.Status)
	require.Len(t, scribe.Meta.Records, 1)
	assert.Equal(t, 1, scribe.Meta.Records[0].Retries)
	assert.Equal(t, 1, scribe.Meta.Retries)
}

func TestProcessRefusal(t *testing.T) {
	scribe := readyScribe(2)
	repo := newMemoryScribeRepo(scribe)
	provider := &fakeProvider{budget: 50, extract: func(call int, in ai.ExtractInput) (*ai.ExtractResult, error) {
		return nil, fmt.Errorf("%w: content filtered", ai.ErrRefused)
	}}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, &fakeQuotaUsecase{}, provider).Process(context.Background(), scribe.ID))

	assert.Equal(t, models.ScribeStatusRefused, scribe.Status)
	assert.NotEmpty(t, scribe.Meta.Error)
}

func TestProcessSkipsNonReadyScribe(t *testing.T) {
	scribe := readyScribe(2)
	scribe.Status = models.ScribeStatusCompleted
	repo := newMemoryScribeRepo(scribe)
	quota := &fakeQuotaUsecase{}
	provider := &fakeProvider{budget: 50, extract: fillAllFields}

	require.NoError(t, newTestProcessor(repo, &memoryFileRepo{}, quota, provider).Process(context.Background(), scribe.ID))

	// Silent no-op: nothing touched.
	assert.Equal(t, models.ScribeStatusCompleted, scribe.Status)
	assert.Zero(t, quota.authorized)
	assert.Empty(t, provider.extractions)
}

func TestProcessTranscriptionOnlyOnFirstChunk(t *testing.T) {
	scribe := readyScribe(45)
	repo := newMemoryScribeRepo(scribe)
	files := &memoryFileRepo{files: []models.ScribeFile{{
		ID: "audio-1", AssociatingID: scribe.ID, Kind: models.ScribeFileAudio,
		InternalName: "audio-1.mp3", UploadDone: true,
	}}}
	provider := &fakeProvider{budget: 20, nativeAudio: true, extract: func(call int, in ai.ExtractInput) (*ai.ExtractResult, error) {
		result, err := fillAllFields(call, in)
		if err != nil {
			return nil, err
		}
		if _, ok := in.Schema["properties"].(map[string]interface{})[constvars.TranscriptionFieldKey]; ok {
			result.Transcription = "native transcription"
		}
		return result, nil
	}}

	require.NoError(t, newTestProcessor(repo, files, &fakeQuotaUsecase{}, provider).Process(context.Background(), scribe.ID))

	require.Len(t, provider.extractions, 3)
	for i, in := range provider.extractions {
		_, hasTranscription := in.Schema["properties"].(map[string]interface{})[constvars.TranscriptionFieldKey]
		assert.Equal(t, i == 0, hasTranscription, "chunk %d", i)
	}
	assert.Equal(t, "native transcription", scribe.Transcript)
	assert.Zero(t, provider.transcripts)
}

var _ contracts.ScribeRepository = (*memoryScribeRepo)(nil)
var _ contracts.ScribeFileRepository = (*memoryFileRepo)(nil)
var _ contracts.FileStore = (*memoryFileStore)(nil)
var _ contracts.QuotaUsecase = (*fakeQuotaUsecase)(nil)
var _ ai.Provider = (*fakeProvider)(nil)
