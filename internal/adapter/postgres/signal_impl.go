package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/signal-service/internal/entity"
)

// SignalRepoImpl provides a concrete implementation for the SignalRepository
// interface using PostgreSQL.
type SignalRepoImpl struct {
	db *pgxpool.Pool
}

// NewSignalRepo creates a new instance of SignalRepoImpl.
func NewSignalRepo(db *pgxpool.Pool) *SignalRepoImpl {
	return &SignalRepoImpl{db: db}
}

// Save inserts a new signal row.
func (r *SignalRepoImpl) Save(ctx context.Context, signal *entity.Signal) error {
	if signal.ID == uuid.Nil {
		signal.ID = uuid.New()
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = time.Now().UTC()
	}
	if signal.RawExtraction == nil {
		signal.RawExtraction = []byte("{}")
	}

	query := `
		INSERT INTO signals (id, created_at, user_id, post_id, event_type, event_timing, event_date, event_date_inferred,
		                     companies_mentioned, people_mentioned, relevance_score, summary, raw_extraction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		signal.ID,
		signal.CreatedAt,
		signal.UserID,
		signal.PostID,
		signal.EventType,
		string(signal.EventTiming),
		signal.EventDate,
		signal.EventDateInferred,
		signal.CompaniesMentioned,
		signal.PeopleMentioned,
		signal.RelevanceScore,
		signal.Summary,
		[]byte(signal.RawExtraction),
	)
	return err
}

// ExistsForPost checks whether a signal was already created for a post.
func (r *SignalRepoImpl) ExistsForPost(ctx context.Context, postID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals WHERE post_id = $1);`,
		postID,
	).Scan(&exists)
	return exists, err
}

// ListRecent retrieves the most recently created signals.
func (r *SignalRepoImpl) ListRecent(ctx context.Context, limit int) ([]*entity.Signal, error) {
	query := `
		SELECT id, created_at, user_id, post_id, event_type, event_timing, event_date, event_date_inferred,
		       companies_mentioned, people_mentioned, relevance_score, summary, raw_extraction
		FROM signals
		ORDER BY created_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*entity.Signal
	for rows.Next() {
		var signal entity.Signal
		var timing string
		var rawExtraction []byte
		err := rows.Scan(
			&signal.ID,
			&signal.CreatedAt,
			&signal.UserID,
			&signal.PostID,
			&signal.EventType,
			&timing,
			&signal.EventDate,
			&signal.EventDateInferred,
			&signal.CompaniesMentioned,
			&signal.PeopleMentioned,
			&signal.RelevanceScore,
			&signal.Summary,
			&rawExtraction,
		)
		if err != nil {
			return nil, err
		}
		signal.EventTiming = entity.EventTiming(timing)
		signal.RawExtraction = rawExtraction
		signals = append(signals, &signal)
	}
	return signals, rows.Err()
}
