package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
)

// ProfileRepository defines the interface for monitored profile persistence.
type ProfileRepository interface {
	// FindDueForCrawl retrieves active profiles whose last crawl is either
	// unset or older than the global minimum interval. The per-profile
	// frequency check happens in the use case.
	FindDueForCrawl(ctx context.Context, now time.Time, minInterval time.Duration) ([]*entity.MonitoredProfile, error)
	// FindByID retrieves a single profile.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MonitoredProfile, error)
	// UpdateLastCrawledAt advances the profile's last crawl timestamp.
	UpdateLastCrawledAt(ctx context.Context, id uuid.UUID, crawledAt time.Time) error
}
