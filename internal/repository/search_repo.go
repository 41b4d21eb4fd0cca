package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
)

// SearchRepository defines the interface for monitored search persistence.
type SearchRepository interface {
	// FindDueForCrawl retrieves active searches due under the global floor.
	FindDueForCrawl(ctx context.Context, now time.Time, minInterval time.Duration) ([]*entity.MonitoredSearch, error)
	// FindByID retrieves a single search.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MonitoredSearch, error)
	// UpdateLastCrawledAt advances the search's last crawl timestamp.
	UpdateLastCrawledAt(ctx context.Context, id uuid.UUID, crawledAt time.Time) error
}
