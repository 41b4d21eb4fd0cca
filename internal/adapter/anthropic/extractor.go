// Package anthropic implements the structured event extraction step against
// the Anthropic messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-playground/validator/v10"
	"github.com/user/signal-service/internal/entity"
	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultModel      = "claude-sonnet-4-20250514"
	defaultMaxRetries = 3
	maxTokens         = 1024
)

// extractionSystemPrompt fixes the extraction task: detect business events in
// short social posts, French or English, and answer with one JSON object.
const extractionSystemPrompt = `You are an event detection specialist analyzing social-media posts in French or English.
Your task is to identify business events and extract structured information.

Look for:
- Seminars, webinars, conferences
- Trade shows, conventions, exhibitions
- Product launches, announcements
- Company anniversaries, milestones
- Networking events, meetups

Extract:
- Event type and timing (past/future)
- Explicit or inferred dates
- Companies, brands, partners mentioned
- Decision-makers, organizers named
- Commercial relevance score (0-1)

Respond with a single JSON object and nothing else, using exactly these fields:
{
  "is_event_related": boolean,
  "event_type": "seminar"|"convention"|"product_launch"|"anniversary"|"trade_show"|"conference"|"webinar"|"networking"|"other"|null,
  "event_timing": "past"|"future"|"unknown",
  "event_date": "YYYY-MM-DD" or null,
  "date_is_inferred": boolean,
  "companies_mentioned": [string],
  "people_mentioned": [string],
  "relevance_score": number between 0 and 1,
  "summary": string in the same language as the post
}

If no event is detected, set is_event_related to false and provide a low relevance_score.`

// completer abstracts the single remote call so retry handling can be tested
// without the SDK.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

type apiCompleter struct {
	client sdk.Client
	model  string
}

func (c *apiCompleter) complete(ctx context.Context, system, user string) (string, error) {
	message, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		System: []sdk.TextBlockParam{
			{Text: system},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
		Temperature: sdk.Float(0.1),
	})
	if err != nil {
		return "", err
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in model response")
}

// Extractor implements repository.ExtractorRepository. One instance is shared
// across a whole analysis batch.
type Extractor struct {
	completer  completer
	validate   *validator.Validate
	maxRetries int
	logger     *zap.Logger
}

// NewExtractor creates an extractor. The API key is mandatory; model and
// retry budget fall back to defaults.
func NewExtractor(apiKey, model string, maxRetries int, logger *zap.Logger) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key: %w", repository.ErrNotConfigured)
	}
	if model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &Extractor{
		completer:  &apiCompleter{client: client, model: model},
		validate:   validator.New(),
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// Extract runs one post through the model. Transport and API failures consume
// a retry and continue; a response that fails to parse or validate ends the
// attempt immediately with no extraction. Exhausted retries return
// ErrExtractionFailed so the caller can keep the post eligible for the next
// cycle; only a completed call yields a nil extraction.
func (e *Extractor) Extract(ctx context.Context, content, authorName string) (*entity.SignalExtraction, error) {
	if strings.TrimSpace(content) == "" {
		e.logger.Warn("Empty post content provided for extraction")
		return nil, nil
	}

	user := fmt.Sprintf("Analyze this post for event signals:\n\n%s", content)
	if authorName != "" {
		user = fmt.Sprintf("Post by %s:\n\n%s", authorName, content)
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		text, err := e.completer.complete(ctx, extractionSystemPrompt, user)
		if err != nil {
			lastErr = err
			e.logger.Warn("Extraction API call failed",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", e.maxRetries),
				zap.Error(err),
			)
			continue
		}

		extraction := e.parseResponse(text)
		if extraction == nil {
			// Well-formed call, unusable payload: not a transient failure.
			return nil, nil
		}

		e.logger.Debug("Extracted signal from post",
			zap.Int("attempt", attempt),
			zap.Bool("is_event_related", extraction.IsEventRelated),
		)
		return extraction, nil
	}

	e.logger.Error("Extraction failed after all retries", zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %v", repository.ErrExtractionFailed, lastErr)
}

// parseResponse decodes and validates the model output. Any defect yields nil.
func (e *Extractor) parseResponse(text string) *entity.SignalExtraction {
	cleaned := stripCodeFence(text)

	var extraction entity.SignalExtraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		e.logger.Warn("Failed to parse extraction response",
			zap.Error(err),
			zap.String("content", truncate(cleaned, 500)),
		)
		return nil
	}
	if err := e.validate.Struct(&extraction); err != nil {
		e.logger.Warn("Extraction response failed schema validation",
			zap.Error(err),
			zap.String("content", truncate(cleaned, 500)),
		)
		return nil
	}

	extraction.Raw = json.RawMessage(cleaned)
	return &extraction
}

// stripCodeFence unwraps responses the model wrapped in a markdown fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
