package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/signal-service/internal/entity"
)

// SearchRepoImpl provides a concrete implementation for the SearchRepository
// interface using PostgreSQL.
type SearchRepoImpl struct {
	db *pgxpool.Pool
}

// NewSearchRepo creates a new instance of SearchRepoImpl.
func NewSearchRepo(db *pgxpool.Pool) *SearchRepoImpl {
	return &SearchRepoImpl{db: db}
}

const searchColumns = `id, user_id, term, search_type, crawl_frequency_hours, last_crawled_at, is_active, created_at`

// FindDueForCrawl retrieves active searches due under the global floor.
func (r *SearchRepoImpl) FindDueForCrawl(ctx context.Context, now time.Time, minInterval time.Duration) ([]*entity.MonitoredSearch, error) {
	query := `
		SELECT ` + searchColumns + `
		FROM monitored_searches
		WHERE is_active = TRUE
		  AND (last_crawled_at IS NULL OR last_crawled_at < $1)
		ORDER BY last_crawled_at ASC NULLS FIRST;
	`
	rows, err := r.db.Query(ctx, query, now.Add(-minInterval))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []*entity.MonitoredSearch
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, search)
	}
	return searches, rows.Err()
}

// FindByID retrieves a single monitored search.
func (r *SearchRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.MonitoredSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM monitored_searches WHERE id = $1;`
	return scanSearch(r.db.QueryRow(ctx, query, id))
}

// UpdateLastCrawledAt advances the search's last crawl timestamp.
func (r *SearchRepoImpl) UpdateLastCrawledAt(ctx context.Context, id uuid.UUID, crawledAt time.Time) error {
	query := `UPDATE monitored_searches SET last_crawled_at = $2 WHERE id = $1;`
	_, err := r.db.Exec(ctx, query, id, crawledAt)
	return err
}

func scanSearch(row rowScanner) (*entity.MonitoredSearch, error) {
	var search entity.MonitoredSearch
	err := row.Scan(
		&search.ID,
		&search.UserID,
		&search.Term,
		&search.SearchType,
		&search.CrawlFrequencyHours,
		&search.LastCrawledAt,
		&search.IsActive,
		&search.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &search, nil
}
