package entity

import "encoding/json"

// EventTiming says whether a detected event lies in the past or the future.
type EventTiming string

const (
	TimingPast    EventTiming = "past"
	TimingFuture  EventTiming = "future"
	TimingUnknown EventTiming = "unknown"
)

// EventTypes enumerates the categories the extraction model may assign.
var EventTypes = []string{
	"seminar",
	"convention",
	"product_launch",
	"anniversary",
	"trade_show",
	"conference",
	"webinar",
	"networking",
	"other",
}

// SignalExtraction is the structured result of one LLM extraction call. It is
// transient; the pipeline decides whether to materialize it as a Signal.
type SignalExtraction struct {
	IsEventRelated     bool        `json:"is_event_related"`
	EventType          *string     `json:"event_type" validate:"omitempty,oneof=seminar convention product_launch anniversary trade_show conference webinar networking other"`
	EventTiming        EventTiming `json:"event_timing" validate:"oneof=past future unknown"`
	EventDate          *string     `json:"event_date"` // YYYY-MM-DD
	DateIsInferred     bool        `json:"date_is_inferred"`
	CompaniesMentioned []string    `json:"companies_mentioned"`
	PeopleMentioned    []string    `json:"people_mentioned"`
	RelevanceScore     float64     `json:"relevance_score" validate:"gte=0,lte=1"`
	Summary            string      `json:"summary"`

	// Raw holds the verbatim model response for audit storage.
	Raw json.RawMessage `json:"-"`
}
