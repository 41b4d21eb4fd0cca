package repository

import (
	"context"

	"github.com/user/signal-service/internal/entity"
)

// ScraperRepository defines the contract for fetching posts through the
// remote job runner.
type ScraperRepository interface {
	// ScrapeProfilePosts fetches recent posts published by a profile.
	ScrapeProfilePosts(ctx context.Context, profileURL string) ([]entity.ScrapedPost, error)
	// ScrapeSearchPosts fetches posts matching a keyword or hashtag.
	ScrapeSearchPosts(ctx context.Context, term string, isHashtag bool) ([]entity.ScrapedPost, error)
	// ValidateProfileConfig reports ErrNotConfigured when profile crawling
	// cannot proceed (missing credential, agent ID or session cookie).
	ValidateProfileConfig() error
	// ValidateSearchConfig reports ErrNotConfigured when search crawling
	// cannot proceed.
	ValidateSearchConfig() error
}
