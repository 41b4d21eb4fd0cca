package phantombuster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

// ScraperConfig carries the agent identifiers and pass-through session
// parameters for the two crawl job targets.
type ScraperConfig struct {
	ProfilePostsAgentID string
	SearchPostsAgentID  string
	SessionCookie       string
	UserAgent           string
	MaxPostsPerCrawl    int
	JobTimeout          time.Duration
	PollInterval        time.Duration
}

// Scraper implements repository.ScraperRepository on top of the job runner
// client.
type Scraper struct {
	client *Client
	cfg    ScraperConfig
	logger *zap.Logger
}

// NewScraper creates a scraper bound to the configured agents.
func NewScraper(client *Client, cfg ScraperConfig, logger *zap.Logger) *Scraper {
	if cfg.MaxPostsPerCrawl <= 0 {
		cfg.MaxPostsPerCrawl = 20
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Scraper{client: client, cfg: cfg, logger: logger}
}

// ValidateProfileConfig reports whether profile crawling can proceed at all.
func (s *Scraper) ValidateProfileConfig() error {
	if s.client == nil {
		return fmt.Errorf("phantombuster api key: %w", repository.ErrNotConfigured)
	}
	if s.cfg.ProfilePostsAgentID == "" {
		return fmt.Errorf("profile posts agent ID: %w", repository.ErrNotConfigured)
	}
	if s.cfg.SessionCookie == "" {
		return fmt.Errorf("session cookie: %w", repository.ErrNotConfigured)
	}
	return nil
}

// ValidateSearchConfig reports whether search crawling can proceed.
func (s *Scraper) ValidateSearchConfig() error {
	if s.client == nil {
		return fmt.Errorf("phantombuster api key: %w", repository.ErrNotConfigured)
	}
	if s.cfg.SearchPostsAgentID == "" {
		return fmt.Errorf("search posts agent ID: %w", repository.ErrNotConfigured)
	}
	if s.cfg.SessionCookie == "" {
		return fmt.Errorf("session cookie: %w", repository.ErrNotConfigured)
	}
	return nil
}

// ScrapeProfilePosts fetches recent posts from a profile through the
// profile-posts agent.
func (s *Scraper) ScrapeProfilePosts(ctx context.Context, profileURL string) ([]entity.ScrapedPost, error) {
	if err := s.ValidateProfileConfig(); err != nil {
		return nil, err
	}

	argument := map[string]any{
		"spreadsheetUrl":   profileURL,
		"numberMaxOfPosts": s.cfg.MaxPostsPerCrawl,
	}
	s.injectSession(argument)

	output, err := s.client.LaunchAndWait(ctx, s.cfg.ProfilePostsAgentID, argument, s.cfg.JobTimeout, s.cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("scrape profile posts: %w", err)
	}

	if output.ResultObject == nil {
		s.logger.Warn("No result object from profile posts agent", zap.String("profile_url", profileURL))
		return nil, nil
	}
	return ParsePosts(output.ResultObject, s.logger), nil
}

// ScrapeSearchPosts fetches posts matching a keyword or hashtag through the
// search-posts agent.
func (s *Scraper) ScrapeSearchPosts(ctx context.Context, term string, isHashtag bool) ([]entity.ScrapedPost, error) {
	if err := s.ValidateSearchConfig(); err != nil {
		return nil, err
	}

	if isHashtag && !strings.HasPrefix(term, "#") {
		term = "#" + term
	}

	argument := map[string]any{
		"searchTerm":    term,
		"numberOfPosts": s.cfg.MaxPostsPerCrawl,
	}
	s.injectSession(argument)

	output, err := s.client.LaunchAndWait(ctx, s.cfg.SearchPostsAgentID, argument, s.cfg.JobTimeout, s.cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("scrape search posts: %w", err)
	}

	if output.ResultObject == nil {
		s.logger.Warn("No result object from search posts agent", zap.String("term", term))
		return nil, nil
	}
	return ParsePosts(output.ResultObject, s.logger), nil
}

// injectSession passes the session credential and user agent through to the
// agent verbatim when configured.
func (s *Scraper) injectSession(argument map[string]any) {
	if s.cfg.SessionCookie != "" {
		argument["sessionCookie"] = s.cfg.SessionCookie
	}
	if s.cfg.UserAgent != "" {
		argument["userAgent"] = s.cfg.UserAgent
	}
}
