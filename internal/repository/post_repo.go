package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
)

// PostRepository defines the interface for storing and selecting crawled posts.
type PostRepository interface {
	// ExistsBySourcePostID checks whether a post with the given external
	// identifier has already been stored.
	ExistsBySourcePostID(ctx context.Context, sourcePostID string) (bool, error)
	// Save inserts a post. The insert is a no-op when the source post ID is
	// already present; the returned bool reports whether a row was written.
	Save(ctx context.Context, post *entity.Post) (bool, error)
	// FindWithoutSignal retrieves up to limit posts that have no signal and
	// have not been analyzed yet, newest first.
	FindWithoutSignal(ctx context.Context, limit int) ([]*entity.Post, error)
	// MarkAnalyzed stamps a post as evaluated, signal-worthy or not.
	MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) error
}
