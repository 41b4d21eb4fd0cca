package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user/signal-service/internal/delivery/http/response"
	"github.com/user/signal-service/internal/repository"
	"github.com/user/signal-service/internal/usecase"
	"go.uber.org/zap"
)

const defaultSignalListLimit = 50

type Handler struct {
	crawler     usecase.CrawlScheduler
	profileRepo repository.ProfileRepository
	signalRepo  repository.SignalRepository
	logger      *zap.Logger
}

func NewHandler(crawler usecase.CrawlScheduler, profileRepo repository.ProfileRepository, signalRepo repository.SignalRepository, logger *zap.Logger) *Handler {
	return &Handler{
		crawler:     crawler,
		profileRepo: profileRepo,
		signalRepo:  signalRepo,
		logger:      logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleTriggerCrawl crawls a single profile outside the schedule.
func (h *Handler) HandleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		h.writeJSONError(w, "Invalid profile ID", http.StatusBadRequest)
		return
	}

	profile, err := h.profileRepo.FindByID(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.writeJSONError(w, "Profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load profile",
			zap.String("profile_id", profileID.String()),
			zap.Error(err),
		)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stored, err := h.crawler.CrawlProfile(r.Context(), profile, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrRecentlyCrawled) {
			h.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, repository.ErrNotConfigured) {
			h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("On-demand crawl failed",
			zap.String("profile_id", profileID.String()),
			zap.Error(err),
		)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.TriggerCrawlResponse{
		Status:      "success",
		ProfileID:   profileID.String(),
		PostsStored: stored,
	})
}

// HandleListSignals returns the most recent signals.
func (h *Handler) HandleListSignals(w http.ResponseWriter, r *http.Request) {
	limit := defaultSignalListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeJSONError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	signals, err := h.signalRepo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list signals", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]response.SignalResponse, 0, len(signals))
	for _, signal := range signals {
		out = append(out, response.SignalResponse{
			ID:                 signal.ID.String(),
			CreatedAt:          signal.CreatedAt,
			PostID:             signal.PostID.String(),
			EventType:          signal.EventType,
			EventTiming:        string(signal.EventTiming),
			EventDate:          signal.EventDate,
			EventDateInferred:  signal.EventDateInferred,
			CompaniesMentioned: signal.CompaniesMentioned,
			PeopleMentioned:    signal.PeopleMentioned,
			RelevanceScore:     signal.RelevanceScore,
			Summary:            signal.Summary,
		})
	}

	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
