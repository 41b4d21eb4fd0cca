package repository

import (
	"context"

	"github.com/user/signal-service/internal/entity"
)

// ExtractorRepository defines the contract for the structured LLM extraction
// step. A nil result with a nil error means the post was evaluated and no
// usable extraction came back; ErrExtractionFailed means no attempt completed
// and the post must stay eligible for a later cycle.
type ExtractorRepository interface {
	Extract(ctx context.Context, content, authorName string) (*entity.SignalExtraction, error)
}
