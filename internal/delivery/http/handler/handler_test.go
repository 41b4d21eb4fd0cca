package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

type stubCrawler struct {
	stored int
	err    error
}

func (s *stubCrawler) RunDueCrawls(context.Context, time.Time) error       { return nil }
func (s *stubCrawler) RunDueSearchCrawls(context.Context, time.Time) error { return nil }
func (s *stubCrawler) CrawlProfile(context.Context, *entity.MonitoredProfile, time.Time) (int, error) {
	return s.stored, s.err
}

type stubProfileRepo struct {
	profile *entity.MonitoredProfile
	err     error
}

func (s *stubProfileRepo) FindDueForCrawl(context.Context, time.Time, time.Duration) ([]*entity.MonitoredProfile, error) {
	return nil, nil
}

func (s *stubProfileRepo) FindByID(context.Context, uuid.UUID) (*entity.MonitoredProfile, error) {
	return s.profile, s.err
}

func (s *stubProfileRepo) UpdateLastCrawledAt(context.Context, uuid.UUID, time.Time) error {
	return nil
}

type stubSignalRepo struct {
	signals []*entity.Signal
	err     error
}

func (s *stubSignalRepo) Save(context.Context, *entity.Signal) error { return nil }
func (s *stubSignalRepo) ExistsForPost(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubSignalRepo) ListRecent(context.Context, int) ([]*entity.Signal, error) {
	return s.signals, s.err
}

func triggerCrawl(t *testing.T, h *Handler, profileID string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/api/profiles/{profileID}/crawl", h.HandleTriggerCrawl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/profiles/"+profileID+"/crawl", nil)
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleTriggerCrawl(t *testing.T) {
	profile := &entity.MonitoredProfile{ID: uuid.New(), IsActive: true}

	tests := []struct {
		name       string
		profileID  string
		repo       *stubProfileRepo
		crawler    *stubCrawler
		wantStatus int
	}{
		{
			name:       "successful crawl",
			profileID:  profile.ID.String(),
			repo:       &stubProfileRepo{profile: profile},
			crawler:    &stubCrawler{stored: 3},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed profile id",
			profileID:  "not-a-uuid",
			repo:       &stubProfileRepo{},
			crawler:    &stubCrawler{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown profile",
			profileID:  uuid.NewString(),
			repo:       &stubProfileRepo{err: pgx.ErrNoRows},
			crawler:    &stubCrawler{},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "database outage is not a missing profile",
			profileID:  uuid.NewString(),
			repo:       &stubProfileRepo{err: errors.New("connection refused")},
			crawler:    &stubCrawler{},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "recently crawled",
			profileID:  profile.ID.String(),
			repo:       &stubProfileRepo{profile: profile},
			crawler:    &stubCrawler{err: repository.ErrRecentlyCrawled},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "crawling not configured",
			profileID:  profile.ID.String(),
			repo:       &stubProfileRepo{profile: profile},
			crawler:    &stubCrawler{err: repository.ErrNotConfigured},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(tc.crawler, tc.repo, &stubSignalRepo{}, zap.NewNop())
			rec := triggerCrawl(t, h, tc.profileID)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHandleTriggerCrawl_ResponseBody(t *testing.T) {
	profile := &entity.MonitoredProfile{ID: uuid.New(), IsActive: true}
	h := NewHandler(&stubCrawler{stored: 5}, &stubProfileRepo{profile: profile}, &stubSignalRepo{}, zap.NewNop())

	rec := triggerCrawl(t, h, profile.ID.String())

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, profile.ID.String(), body["profile_id"])
	assert.Equal(t, float64(5), body["posts_stored"])
}

func TestHandleListSignals(t *testing.T) {
	signal := &entity.Signal{
		ID:          uuid.New(),
		PostID:      uuid.New(),
		EventTiming: entity.TimingFuture,
		Summary:     "conference next month",
	}
	h := NewHandler(&stubCrawler{}, &stubProfileRepo{}, &stubSignalRepo{signals: []*entity.Signal{signal}}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleListSignals(rec, httptest.NewRequest(http.MethodGet, "/api/signals", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, signal.ID.String(), body[0]["id"])
	assert.Equal(t, "future", body[0]["event_timing"])
}

func TestHandleListSignals_InvalidLimit(t *testing.T) {
	h := NewHandler(&stubCrawler{}, &stubProfileRepo{}, &stubSignalRepo{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleListSignals(rec, httptest.NewRequest(http.MethodGet, "/api/signals?limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
