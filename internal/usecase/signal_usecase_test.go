package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

type fakeSignalRepo struct {
	saved    []*entity.Signal
	existing map[uuid.UUID]bool
	saveErr  error
}

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{existing: map[uuid.UUID]bool{}}
}

func (r *fakeSignalRepo) Save(_ context.Context, signal *entity.Signal) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, signal)
	r.existing[signal.PostID] = true
	return nil
}

func (r *fakeSignalRepo) ExistsForPost(_ context.Context, postID uuid.UUID) (bool, error) {
	return r.existing[postID], nil
}

func (r *fakeSignalRepo) ListRecent(_ context.Context, limit int) ([]*entity.Signal, error) {
	if len(r.saved) > limit {
		return r.saved[:limit], nil
	}
	return r.saved, nil
}

type fakeExtractor struct {
	results map[string]*entity.SignalExtraction
	errs    map[string]error
	calls   int
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{results: map[string]*entity.SignalExtraction{}, errs: map[string]error{}}
}

func (e *fakeExtractor) Extract(_ context.Context, content, _ string) (*entity.SignalExtraction, error) {
	e.calls++
	if err := e.errs[content]; err != nil {
		return nil, err
	}
	return e.results[content], nil
}

type pipelineFixture struct {
	postRepo    *fakePostRepo
	signalRepo  *fakeSignalRepo
	profileRepo *fakeProfileRepo
	searchRepo  *fakeSearchRepo
	extractor   *fakeExtractor
	pipeline    SignalPipeline
}

func newPipelineFixture(profiles ...*entity.MonitoredProfile) *pipelineFixture {
	f := &pipelineFixture{
		postRepo:    newFakePostRepo(),
		signalRepo:  newFakeSignalRepo(),
		profileRepo: newFakeProfileRepo(profiles...),
		searchRepo:  &fakeSearchRepo{},
		extractor:   newFakeExtractor(),
	}
	f.pipeline = NewSignalPipeline(f.postRepo, f.signalRepo, f.profileRepo, f.searchRepo, f.extractor, zap.NewNop())
	return f
}

func profilePost(profileID uuid.UUID, content string) *entity.Post {
	return &entity.Post{
		ID:        uuid.New(),
		ProfileID: &profileID,
		Content:   content,
		PostedAt:  time.Now().UTC(),
	}
}

func eventExtraction(score float64, related bool) *entity.SignalExtraction {
	eventType := "conference"
	date := "2026-10-01"
	return &entity.SignalExtraction{
		IsEventRelated:     related,
		EventType:          &eventType,
		EventTiming:        entity.TimingFuture,
		EventDate:          &date,
		DateIsInferred:     true,
		CompaniesMentioned: []string{"Acme Corp"},
		PeopleMentioned:    []string{"Jane Doe"},
		RelevanceScore:     score,
		Summary:            "conference announcement",
	}
}

func TestAnalyzeOne_CreatesSignalForEventPost(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)
	post := profilePost(profile.ID, "come to our conference")
	f.extractor.results[post.Content] = eventExtraction(0.9, true)

	signal, err := f.pipeline.AnalyzeOne(context.Background(), post)

	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, profile.UserID, signal.UserID)
	assert.Equal(t, post.ID, signal.PostID)
	assert.Equal(t, entity.TimingFuture, signal.EventTiming)
	require.NotNil(t, signal.EventDate)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), signal.EventDate.UTC())
	assert.True(t, signal.EventDateInferred)
	assert.False(t, signal.CreatedAt.IsZero())
	assert.NotEmpty(t, signal.RawExtraction)

	require.Len(t, f.signalRepo.saved, 1)
	_, analyzed := f.postRepo.analyzed[post.ID]
	assert.True(t, analyzed)
}

func TestAnalyzeOne_RelevanceThreshold(t *testing.T) {
	tests := []struct {
		name         string
		score        float64
		eventRelated bool
		wantSignal   bool
	}{
		{"not related, below threshold", 0.25, false, false},
		{"not related, at threshold", 0.3, false, true},
		{"not related, above threshold", 0.35, false, true},
		{"related, below threshold", 0.1, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := activeProfile("https://example.com/p1", nil)
			f := newPipelineFixture(profile)
			post := profilePost(profile.ID, "some post")
			f.extractor.results[post.Content] = eventExtraction(tc.score, tc.eventRelated)

			signal, err := f.pipeline.AnalyzeOne(context.Background(), post)

			require.NoError(t, err)
			assert.Equal(t, tc.wantSignal, signal != nil)

			// Analyzed either way so the post is never re-billed.
			_, analyzed := f.postRepo.analyzed[post.ID]
			assert.True(t, analyzed)
		})
	}
}

func TestAnalyzeOne_NilExtractionStampsPost(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)
	post := profilePost(profile.ID, "unanalyzable")

	signal, err := f.pipeline.AnalyzeOne(context.Background(), post)

	require.NoError(t, err)
	assert.Nil(t, signal)
	assert.Empty(t, f.signalRepo.saved)
	_, analyzed := f.postRepo.analyzed[post.ID]
	assert.True(t, analyzed)
}

func TestAnalyzeOne_OutageKeepsPostEligible(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)
	post := profilePost(profile.ID, "come to our conference")
	f.extractor.errs[post.Content] = repository.ErrExtractionFailed

	_, err := f.pipeline.AnalyzeOne(context.Background(), post)
	require.ErrorIs(t, err, repository.ErrExtractionFailed)

	// The post was never evaluated, so it must not carry an analysis stamp.
	_, stamped := f.postRepo.analyzed[post.ID]
	assert.False(t, stamped)

	// Once the extraction service recovers, the next cycle picks it up.
	delete(f.extractor.errs, post.Content)
	f.extractor.results[post.Content] = eventExtraction(0.9, true)

	signal, err := f.pipeline.AnalyzeOne(context.Background(), post)
	require.NoError(t, err)
	require.NotNil(t, signal)
}

func TestAnalyzeOne_SkipsPostWithExistingSignal(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)
	post := profilePost(profile.ID, "come to our conference")
	f.signalRepo.existing[post.ID] = true

	signal, err := f.pipeline.AnalyzeOne(context.Background(), post)

	require.NoError(t, err)
	assert.Nil(t, signal)
	assert.Zero(t, f.extractor.calls, "no model call for an already signalled post")
}

func TestAnalyzeOne_UnresolvableOwner(t *testing.T) {
	f := newPipelineFixture()
	orphan := &entity.Post{ID: uuid.New(), Content: "whose is this", PostedAt: time.Now().UTC()}

	_, err := f.pipeline.AnalyzeOne(context.Background(), orphan)

	require.ErrorIs(t, err, repository.ErrOwnerUnresolved)
	assert.Zero(t, f.extractor.calls)
}

func TestAnalyzeOne_ResolvesSearchOwner(t *testing.T) {
	f := newPipelineFixture()
	search := &entity.MonitoredSearch{ID: uuid.New(), UserID: uuid.New(), Term: "trade show", IsActive: true}
	f.searchRepo.searches = []*entity.MonitoredSearch{search}

	post := &entity.Post{ID: uuid.New(), SearchID: &search.ID, Content: "trade show recap", PostedAt: time.Now().UTC()}
	f.extractor.results[post.Content] = eventExtraction(0.8, true)

	signal, err := f.pipeline.AnalyzeOne(context.Background(), post)

	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, search.UserID, signal.UserID)
}

func TestAnalyzePending_BatchIsolation(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)

	good := profilePost(profile.ID, "good post")
	bad := profilePost(profile.ID, "bad post")
	boring := profilePost(profile.ID, "boring post")
	f.postRepo.pending = []*entity.Post{good, bad, boring}

	f.extractor.results[good.Content] = eventExtraction(0.9, true)
	f.extractor.errs[bad.Content] = errors.New("extraction misconfigured")
	f.extractor.results[boring.Content] = eventExtraction(0.05, false)

	report, err := f.pipeline.AnalyzePending(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Errors)
	require.Len(t, f.signalRepo.saved, 1)
	assert.Equal(t, good.ID, f.signalRepo.saved[0].PostID)
}

func TestAnalyzePending_HonorsLimit(t *testing.T) {
	profile := activeProfile("https://example.com/p1", nil)
	f := newPipelineFixture(profile)
	for i := 0; i < 5; i++ {
		f.postRepo.pending = append(f.postRepo.pending, profilePost(profile.ID, "unanalyzable"))
	}

	report, err := f.pipeline.AnalyzePending(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
}

func TestAnalyzePending_ZeroLimitUsesDefault(t *testing.T) {
	f := newPipelineFixture()

	report, err := f.pipeline.AnalyzePending(context.Background(), 0)

	require.NoError(t, err)
	assert.Zero(t, report.Processed)
}

func TestBuildSignal_RawFallback(t *testing.T) {
	extraction := eventExtraction(0.7, true)
	post := &entity.Post{ID: uuid.New()}

	signal := buildSignal(post, uuid.New(), extraction, time.Now().UTC())

	require.NotEmpty(t, signal.RawExtraction, "raw payload falls back to the structured result")
	assert.Contains(t, string(signal.RawExtraction), "conference announcement")
}
