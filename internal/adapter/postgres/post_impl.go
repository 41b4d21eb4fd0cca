package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/signal-service/internal/entity"
)

// PostRepoImpl provides a concrete implementation for the PostRepository
// interface using PostgreSQL.
type PostRepoImpl struct {
	db *pgxpool.Pool
}

// NewPostRepo creates a new instance of PostRepoImpl.
func NewPostRepo(db *pgxpool.Pool) *PostRepoImpl {
	return &PostRepoImpl{db: db}
}

// ExistsBySourcePostID checks whether a post with the given external
// identifier has already been stored.
func (r *PostRepoImpl) ExistsBySourcePostID(ctx context.Context, sourcePostID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE source_post_id = $1);`,
		sourcePostID,
	).Scan(&exists)
	return exists, err
}

// Save inserts a post. The unique constraint on source_post_id makes the
// insert atomic under concurrent crawls; a duplicate is silently dropped and
// reported through the returned bool.
func (r *PostRepoImpl) Save(ctx context.Context, post *entity.Post) (bool, error) {
	rawJSON, err := json.Marshal(post.RawData)
	if err != nil {
		return false, err
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}

	query := `
		INSERT INTO posts (id, profile_id, search_id, source_post_id, author_name, author_url, content, posted_at, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_post_id) DO NOTHING;
	`
	tag, err := r.db.Exec(ctx, query,
		post.ID,
		post.ProfileID,
		post.SearchID,
		post.SourcePostID,
		post.AuthorName,
		post.AuthorURL,
		post.Content,
		post.PostedAt,
		rawJSON,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindWithoutSignal retrieves up to limit posts with no signal and no
// analysis stamp yet, newest first.
func (r *PostRepoImpl) FindWithoutSignal(ctx context.Context, limit int) ([]*entity.Post, error) {
	query := `
		SELECT p.id, p.created_at, p.profile_id, p.search_id, p.source_post_id,
		       p.author_name, p.author_url, p.content, p.posted_at, p.analyzed_at, p.raw_data
		FROM posts p
		LEFT JOIN signals s ON s.post_id = p.id
		WHERE s.id IS NULL AND p.analyzed_at IS NULL
		ORDER BY p.created_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*entity.Post
	for rows.Next() {
		var post entity.Post
		var rawJSON []byte
		err := rows.Scan(
			&post.ID,
			&post.CreatedAt,
			&post.ProfileID,
			&post.SearchID,
			&post.SourcePostID,
			&post.AuthorName,
			&post.AuthorURL,
			&post.Content,
			&post.PostedAt,
			&post.AnalyzedAt,
			&rawJSON,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawJSON, &post.RawData); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

// MarkAnalyzed stamps a post as evaluated so it is not re-billed against the
// extraction service on the next batch.
func (r *PostRepoImpl) MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE posts SET analyzed_at = $2 WHERE id = $1;`,
		id, analyzedAt,
	)
	return err
}
