package repository

import (
	"context"
	"time"
)

// CrawlGuardRepository enforces the global minimum recrawl interval, also for
// crawls triggered outside the scheduler.
type CrawlGuardRepository interface {
	// MarkCrawled records that a source was just crawled, expiring after ttl.
	MarkCrawled(ctx context.Context, sourceID string, ttl time.Duration) error
	// IsRecentlyCrawled checks whether the source's marker is still live.
	IsRecentlyCrawled(ctx context.Context, sourceID string) (bool, error)
}
