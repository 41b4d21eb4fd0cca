package response

import "time"

// TriggerCrawlResponse reports the outcome of an on-demand profile crawl.
type TriggerCrawlResponse struct {
	Status      string `json:"status"`
	ProfileID   string `json:"profile_id"`
	PostsStored int    `json:"posts_stored"`
}

// SignalResponse is a DTO for a persisted event signal.
type SignalResponse struct {
	ID                 string     `json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	PostID             string     `json:"post_id"`
	EventType          *string    `json:"event_type"`
	EventTiming        string     `json:"event_timing"`
	EventDate          *time.Time `json:"event_date,omitempty"`
	EventDateInferred  bool       `json:"event_date_inferred"`
	CompaniesMentioned []string   `json:"companies_mentioned"`
	PeopleMentioned    []string   `json:"people_mentioned"`
	RelevanceScore     float64    `json:"relevance_score"`
	Summary            string     `json:"summary"`
}
