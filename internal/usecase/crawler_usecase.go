package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"github.com/user/signal-service/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultMinRecrawlInterval is the global floor between two crawls of the
// same source, independent of its configured frequency.
const DefaultMinRecrawlInterval = time.Hour

// CrawlScheduler defines the interface for the periodic crawl runs.
type CrawlScheduler interface {
	// RunDueCrawls crawls every monitored profile that is due.
	RunDueCrawls(ctx context.Context, now time.Time) error
	// RunDueSearchCrawls is the search counterpart; currently a no-op
	// pending a search job target.
	RunDueSearchCrawls(ctx context.Context, now time.Time) error
	// CrawlProfile crawls a single profile, also usable for on-demand
	// triggers. Returns the number of new posts stored.
	CrawlProfile(ctx context.Context, profile *entity.MonitoredProfile, now time.Time) (int, error)
}

type crawlSchedulerUseCase struct {
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
	guardRepo   repository.CrawlGuardRepository
	scraper     repository.ScraperRepository
	minInterval time.Duration
	logger      *zap.Logger
}

// NewCrawlScheduler creates a new instance of the crawl scheduler use case.
func NewCrawlScheduler(
	profileRepo repository.ProfileRepository,
	postRepo repository.PostRepository,
	guardRepo repository.CrawlGuardRepository,
	scraper repository.ScraperRepository,
	minInterval time.Duration,
	logger *zap.Logger,
) CrawlScheduler {
	if minInterval <= 0 {
		minInterval = DefaultMinRecrawlInterval
	}
	return &crawlSchedulerUseCase{
		profileRepo: profileRepo,
		postRepo:    postRepo,
		guardRepo:   guardRepo,
		scraper:     scraper,
		minInterval: minInterval,
		logger:      logger,
	}
}

// IsDue reports whether a source should be crawled now. A source with no
// previous crawl is always due; otherwise the last crawl must be older than
// both the global floor and the source's own frequency.
func IsDue(lastCrawledAt *time.Time, frequencyHours int, now time.Time, minInterval time.Duration) bool {
	if lastCrawledAt == nil {
		return true
	}
	if !lastCrawledAt.Before(now.Add(-minInterval)) {
		return false
	}
	return !now.Before(lastCrawledAt.Add(time.Duration(frequencyHours) * time.Hour))
}

// RunDueCrawls crawls all due profiles sequentially. A single profile failure
// never aborts the rest of the run; missing configuration aborts it before
// any profile is touched.
func (uc *crawlSchedulerUseCase) RunDueCrawls(ctx context.Context, now time.Time) error {
	uc.logger.Info("Starting profile crawl run")

	if err := uc.scraper.ValidateProfileConfig(); err != nil {
		uc.logger.Warn("Skipping profile crawl run", zap.Error(err))
		return err
	}

	profiles, err := uc.profileRepo.FindDueForCrawl(ctx, now, uc.minInterval)
	if err != nil {
		return fmt.Errorf("find due profiles: %w", err)
	}
	if len(profiles) == 0 {
		uc.logger.Info("No profiles due for crawling")
		return nil
	}

	uc.logger.Info("Found profiles to crawl", zap.Int("count", len(profiles)))

	for _, profile := range profiles {
		if !profile.IsActive || !IsDue(profile.LastCrawledAt, profile.CrawlFrequencyHours, now, uc.minInterval) {
			continue
		}
		if _, err := uc.CrawlProfile(ctx, profile, now); err != nil {
			if errors.Is(err, repository.ErrRecentlyCrawled) {
				continue
			}
			uc.logger.Error("Failed to crawl profile",
				zap.String("profile_id", profile.ID.String()),
				zap.Error(err),
			)
			continue
		}
	}

	uc.logger.Info("Profile crawl run completed")
	return nil
}

// RunDueSearchCrawls will crawl due searches once a search job target exists.
func (uc *crawlSchedulerUseCase) RunDueSearchCrawls(ctx context.Context, now time.Time) error {
	uc.logger.Info("Search crawl run skipped, no search job target configured")
	return nil
}

// CrawlProfile fetches, normalizes and stores posts for one profile. The
// last-crawled timestamp only advances when the scrape itself succeeded, so a
// failed profile stays eligible for the next cycle.
func (uc *crawlSchedulerUseCase) CrawlProfile(ctx context.Context, profile *entity.MonitoredProfile, now time.Time) (int, error) {
	recently, err := uc.guardRepo.IsRecentlyCrawled(ctx, profile.ID.String())
	if err != nil {
		// Guard trouble must not stop crawling; the due check already ran.
		uc.logger.Warn("Crawl guard check failed",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}
	if recently {
		metrics.CrawlsTotal.WithLabelValues("profile", "skipped").Inc()
		return 0, repository.ErrRecentlyCrawled
	}

	uc.logger.Info("Crawling profile",
		zap.String("profile_id", profile.ID.String()),
		zap.String("display_name", profile.DisplayName),
		zap.String("url", profile.URL),
	)

	start := time.Now()
	posts, err := uc.scraper.ScrapeProfilePosts(ctx, profile.URL)
	metrics.CrawlDuration.WithLabelValues("profile").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CrawlsTotal.WithLabelValues("profile", "failure").Inc()
		return 0, fmt.Errorf("crawl profile %s: %w", profile.ID, err)
	}

	stored := uc.storePosts(ctx, posts, &profile.ID, nil, now)

	if err := uc.profileRepo.UpdateLastCrawledAt(ctx, profile.ID, now); err != nil {
		uc.logger.Error("Failed to advance last crawled timestamp",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}
	if err := uc.guardRepo.MarkCrawled(ctx, profile.ID.String(), uc.minInterval); err != nil {
		uc.logger.Warn("Failed to set crawl guard marker",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}

	metrics.CrawlsTotal.WithLabelValues("profile", "success").Inc()
	uc.logger.Info("Profile crawl finished",
		zap.String("profile_id", profile.ID.String()),
		zap.Int("scraped", len(posts)),
		zap.Int("stored", stored),
	)
	return stored, nil
}

// storePosts writes genuinely new posts only. Each insert is its own unit of
// work; one bad record never loses the rest of the batch.
func (uc *crawlSchedulerUseCase) storePosts(ctx context.Context, posts []entity.ScrapedPost, profileID, searchID *uuid.UUID, now time.Time) int {
	stored := 0
	for _, scraped := range posts {
		exists, err := uc.postRepo.ExistsBySourcePostID(ctx, scraped.PostID)
		if err != nil {
			uc.logger.Error("Dedup check failed",
				zap.String("source_post_id", scraped.PostID),
				zap.Error(err),
			)
			continue
		}
		if exists {
			continue
		}

		postedAt := now
		if scraped.PostedAt != nil {
			postedAt = *scraped.PostedAt
		}

		post := &entity.Post{
			ProfileID:    profileID,
			SearchID:     searchID,
			SourcePostID: scraped.PostID,
			AuthorName:   scraped.AuthorName,
			AuthorURL:    scraped.AuthorURL,
			Content:      scraped.Content,
			PostedAt:     postedAt,
			RawData:      scraped.Raw,
		}

		inserted, err := uc.postRepo.Save(ctx, post)
		if err != nil {
			uc.logger.Error("Failed to save post",
				zap.String("source_post_id", scraped.PostID),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			stored++
			metrics.PostsStoredTotal.Inc()
		}
	}
	return stored
}
