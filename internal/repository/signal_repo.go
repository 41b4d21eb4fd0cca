package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/user/signal-service/internal/entity"
)

// SignalRepository defines the interface for persisted event signals.
type SignalRepository interface {
	// Save inserts a new signal.
	Save(ctx context.Context, signal *entity.Signal) error
	// ExistsForPost checks whether a signal was already created for a post.
	ExistsForPost(ctx context.Context, postID uuid.UUID) (bool, error)
	// ListRecent retrieves the most recently created signals.
	ListRecent(ctx context.Context, limit int) ([]*entity.Signal, error)
}
