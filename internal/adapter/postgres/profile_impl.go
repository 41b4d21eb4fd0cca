package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/signal-service/internal/entity"
)

// ProfileRepoImpl provides a concrete implementation for the
// ProfileRepository interface using PostgreSQL.
type ProfileRepoImpl struct {
	db *pgxpool.Pool
}

// NewProfileRepo creates a new instance of ProfileRepoImpl.
func NewProfileRepo(db *pgxpool.Pool) *ProfileRepoImpl {
	return &ProfileRepoImpl{db: db}
}

const profileColumns = `id, user_id, url, profile_type, display_name, crawl_frequency_hours, last_crawled_at, is_active, created_at, updated_at`

// FindDueForCrawl retrieves active profiles whose last crawl is unset or
// older than the global minimum interval. The per-profile frequency check
// stays in the use case.
func (r *ProfileRepoImpl) FindDueForCrawl(ctx context.Context, now time.Time, minInterval time.Duration) ([]*entity.MonitoredProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM monitored_profiles
		WHERE is_active = TRUE
		  AND (last_crawled_at IS NULL OR last_crawled_at < $1)
		ORDER BY last_crawled_at ASC NULLS FIRST;
	`
	rows, err := r.db.Query(ctx, query, now.Add(-minInterval))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*entity.MonitoredProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// FindByID retrieves a single monitored profile.
func (r *ProfileRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.MonitoredProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM monitored_profiles WHERE id = $1;`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

// UpdateLastCrawledAt advances the profile's last crawl timestamp.
func (r *ProfileRepoImpl) UpdateLastCrawledAt(ctx context.Context, id uuid.UUID, crawledAt time.Time) error {
	query := `UPDATE monitored_profiles SET last_crawled_at = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.db.Exec(ctx, query, id, crawledAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*entity.MonitoredProfile, error) {
	var profile entity.MonitoredProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.URL,
		&profile.ProfileType,
		&profile.DisplayName,
		&profile.CrawlFrequencyHours,
		&profile.LastCrawledAt,
		&profile.IsActive,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
