package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const crawlGuardPrefix = "crawled:source:"

// CrawlGuardRepoImpl provides a concrete implementation for the
// CrawlGuardRepository interface using Redis TTL markers.
type CrawlGuardRepoImpl struct {
	client *redis.Client
}

// NewCrawlGuardRepo creates a new instance of CrawlGuardRepoImpl.
func NewCrawlGuardRepo(client *redis.Client) *CrawlGuardRepoImpl {
	return &CrawlGuardRepoImpl{client: client}
}

// MarkCrawled records that a source was just crawled. SETEX is atomic and
// carries the expiry.
func (r *CrawlGuardRepoImpl) MarkCrawled(ctx context.Context, sourceID string, ttl time.Duration) error {
	return r.client.SetEx(ctx, crawlGuardPrefix+sourceID, "1", ttl).Err()
}

// IsRecentlyCrawled checks whether the source's marker is still live.
func (r *CrawlGuardRepoImpl) IsRecentlyCrawled(ctx context.Context, sourceID string) (bool, error) {
	val, err := r.client.Exists(ctx, crawlGuardPrefix+sourceID).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
