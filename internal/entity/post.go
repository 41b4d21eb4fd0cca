package entity

import (
	"time"

	"github.com/google/uuid"
)

// ScrapedPost is the normalized form of a single raw record returned by the
// job runner. It only lives between a crawl and storage.
type ScrapedPost struct {
	PostID        string
	AuthorName    string
	AuthorURL     string
	Content       string
	PostedAt      *time.Time // nil when the source gave no parseable date
	LikesCount    int
	CommentsCount int
	Raw           map[string]any
}

// Post mirrors the `posts` PostgreSQL table schema. Rows are deduplicated by
// SourcePostID and immutable once written.
type Post struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	ProfileID    *uuid.UUID
	SearchID     *uuid.UUID
	SourcePostID string
	AuthorName   string
	AuthorURL    string
	Content      string
	PostedAt     time.Time
	AnalyzedAt   *time.Time
	RawData      map[string]any // stored as JSONB, preserved for audit
}
