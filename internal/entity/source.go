package entity

import (
	"time"

	"github.com/google/uuid"
)

// MonitoredProfile is a profile watched by a user for event signals.
type MonitoredProfile struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	URL                 string
	ProfileType         string // "company" or "personal"
	DisplayName         string
	CrawlFrequencyHours int
	LastCrawledAt       *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MonitoredSearch is a keyword or hashtag watched for discovery crawls.
type MonitoredSearch struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Term                string
	SearchType          string // "keyword" or "hashtag"
	CrawlFrequencyHours int
	LastCrawledAt       *time.Time
	IsActive            bool
	CreatedAt           time.Time
}
