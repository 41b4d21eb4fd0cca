package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"github.com/user/signal-service/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// RelevanceThreshold is the minimum relevance score that materializes a
	// signal for a post the model did not flag as event-related.
	RelevanceThreshold = 0.3

	// DefaultAnalyzeBatchLimit bounds one analyze-pending run.
	DefaultAnalyzeBatchLimit = 50
)

// AnalyzeReport summarizes one analyze-pending batch.
type AnalyzeReport struct {
	Processed int
	Created   int
	Errors    int
}

// SignalPipeline defines the interface for turning stored posts into signals.
type SignalPipeline interface {
	// AnalyzePending analyzes up to limit unprocessed posts, newest first.
	AnalyzePending(ctx context.Context, limit int) (*AnalyzeReport, error)
	// AnalyzeOne analyzes a single post; returns the created signal or nil
	// when the post was judged not signal-worthy.
	AnalyzeOne(ctx context.Context, post *entity.Post) (*entity.Signal, error)
}

type signalPipelineUseCase struct {
	postRepo    repository.PostRepository
	signalRepo  repository.SignalRepository
	profileRepo repository.ProfileRepository
	searchRepo  repository.SearchRepository
	extractor   repository.ExtractorRepository
	logger      *zap.Logger
}

// NewSignalPipeline creates a new instance of the signal pipeline use case.
// The extractor is shared across all posts of a batch.
func NewSignalPipeline(
	postRepo repository.PostRepository,
	signalRepo repository.SignalRepository,
	profileRepo repository.ProfileRepository,
	searchRepo repository.SearchRepository,
	extractor repository.ExtractorRepository,
	logger *zap.Logger,
) SignalPipeline {
	return &signalPipelineUseCase{
		postRepo:    postRepo,
		signalRepo:  signalRepo,
		profileRepo: profileRepo,
		searchRepo:  searchRepo,
		extractor:   extractor,
		logger:      logger,
	}
}

// AnalyzePending selects posts without a signal and runs each through the
// extraction step. Per-post failures are counted and logged, never fatal to
// the batch.
func (uc *signalPipelineUseCase) AnalyzePending(ctx context.Context, limit int) (*AnalyzeReport, error) {
	if limit <= 0 {
		limit = DefaultAnalyzeBatchLimit
	}

	start := time.Now()
	posts, err := uc.postRepo.FindWithoutSignal(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("find posts without signal: %w", err)
	}

	report := &AnalyzeReport{}
	for _, post := range posts {
		report.Processed++
		signal, err := uc.AnalyzeOne(ctx, post)
		if err != nil {
			report.Errors++
			uc.logger.Error("Failed to analyze post",
				zap.String("post_id", post.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if signal != nil {
			report.Created++
		}
	}

	metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	uc.logger.Info("Analyze batch completed",
		zap.Int("processed", report.Processed),
		zap.Int("created", report.Created),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

// AnalyzeOne runs one post through extraction and applies the materialization
// policy: a signal is created iff the model flagged the post as event-related
// or scored it at or above the relevance threshold. The post is stamped as
// analyzed either way so it is not re-billed on the next cycle.
func (uc *signalPipelineUseCase) AnalyzeOne(ctx context.Context, post *entity.Post) (*entity.Signal, error) {
	exists, err := uc.signalRepo.ExistsForPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing signal: %w", err)
	}
	if exists {
		return nil, nil
	}

	userID, err := uc.resolveOwner(ctx, post)
	if err != nil {
		return nil, err
	}

	extraction, err := uc.extractor.Extract(ctx, post.Content, post.AuthorName)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("extract signal: %w", err)
	}

	now := time.Now().UTC()
	if extraction == nil {
		// The model was reached and produced nothing usable; an outage
		// surfaces as an error above and leaves the post unstamped.
		metrics.ExtractionsTotal.WithLabelValues("empty").Inc()
		uc.markAnalyzed(ctx, post.ID, now)
		return nil, nil
	}

	if !shouldMaterialize(extraction) {
		metrics.ExtractionsTotal.WithLabelValues("skipped").Inc()
		uc.logger.Debug("Post judged not signal-worthy",
			zap.String("post_id", post.ID.String()),
			zap.Float64("relevance_score", extraction.RelevanceScore),
		)
		uc.markAnalyzed(ctx, post.ID, now)
		return nil, nil
	}

	signal := buildSignal(post, userID, extraction, now)
	if err := uc.signalRepo.Save(ctx, signal); err != nil {
		return nil, fmt.Errorf("save signal: %w", err)
	}
	uc.markAnalyzed(ctx, post.ID, now)

	metrics.ExtractionsTotal.WithLabelValues("signal").Inc()
	metrics.SignalsCreatedTotal.Inc()
	uc.logger.Info("Signal created",
		zap.String("post_id", post.ID.String()),
		zap.String("signal_id", signal.ID.String()),
		zap.Float64("relevance_score", signal.RelevanceScore),
	)
	return signal, nil
}

// shouldMaterialize is the signal-worthiness policy.
func shouldMaterialize(extraction *entity.SignalExtraction) bool {
	return extraction.IsEventRelated || extraction.RelevanceScore >= RelevanceThreshold
}

// resolveOwner walks the post's back-references to the user that configured
// the source.
func (uc *signalPipelineUseCase) resolveOwner(ctx context.Context, post *entity.Post) (uuid.UUID, error) {
	if post.ProfileID != nil {
		profile, err := uc.profileRepo.FindByID(ctx, *post.ProfileID)
		if err == nil && profile != nil {
			return profile.UserID, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to resolve profile owner",
				zap.String("post_id", post.ID.String()),
				zap.Error(err),
			)
		}
	}
	if post.SearchID != nil {
		search, err := uc.searchRepo.FindByID(ctx, *post.SearchID)
		if err == nil && search != nil {
			return search.UserID, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to resolve search owner",
				zap.String("post_id", post.ID.String()),
				zap.Error(err),
			)
		}
	}
	return uuid.Nil, fmt.Errorf("post %s: %w", post.ID, repository.ErrOwnerUnresolved)
}

func (uc *signalPipelineUseCase) markAnalyzed(ctx context.Context, postID uuid.UUID, analyzedAt time.Time) {
	if err := uc.postRepo.MarkAnalyzed(ctx, postID, analyzedAt); err != nil {
		uc.logger.Warn("Failed to stamp post as analyzed",
			zap.String("post_id", postID.String()),
			zap.Error(err),
		)
	}
}

func buildSignal(post *entity.Post, userID uuid.UUID, extraction *entity.SignalExtraction, createdAt time.Time) *entity.Signal {
	var eventDate *time.Time
	if extraction.EventDate != nil {
		if parsed, err := time.Parse("2006-01-02", *extraction.EventDate); err == nil {
			eventDate = &parsed
		}
	}

	raw := extraction.Raw
	if raw == nil {
		// No verbatim response captured; keep the structured result instead.
		if encoded, err := json.Marshal(extraction); err == nil {
			raw = encoded
		}
	}

	return &entity.Signal{
		ID:                 uuid.New(),
		CreatedAt:          createdAt,
		UserID:             userID,
		PostID:             post.ID,
		EventType:          extraction.EventType,
		EventTiming:        extraction.EventTiming,
		EventDate:          eventDate,
		EventDateInferred:  extraction.DateIsInferred,
		CompaniesMentioned: extraction.CompaniesMentioned,
		PeopleMentioned:    extraction.PeopleMentioned,
		RelevanceScore:     extraction.RelevanceScore,
		Summary:            extraction.Summary,
		RawExtraction:      raw,
	}
}
