package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

const validExtractionJSON = `{
	"is_event_related": true,
	"event_type": "webinar",
	"event_timing": "future",
	"event_date": "2026-09-15",
	"date_is_inferred": false,
	"companies_mentioned": ["Acme Corp"],
	"people_mentioned": ["Jane Doe"],
	"relevance_score": 0.85,
	"summary": "Acme Corp announces a webinar"
}`

type scriptedCompleter struct {
	texts []string
	errs  []error
	calls int
}

func (c *scriptedCompleter) complete(_ context.Context, _, _ string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.texts) {
		return c.texts[i], nil
	}
	return "", errors.New("no scripted response")
}

func newTestExtractor(c completer, maxRetries int) *Extractor {
	return &Extractor{
		completer:  c,
		validate:   validator.New(),
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
	}
}

func TestExtract_SucceedsAfterTransientFailures(t *testing.T) {
	fake := &scriptedCompleter{
		errs:  []error{errors.New("503"), errors.New("overloaded"), nil},
		texts: []string{"", "", validExtractionJSON},
	}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "Join our webinar!", "Acme Corp")

	require.NoError(t, err)
	require.NotNil(t, extraction)
	assert.Equal(t, 3, fake.calls)
	assert.True(t, extraction.IsEventRelated)
	require.NotNil(t, extraction.EventType)
	assert.Equal(t, "webinar", *extraction.EventType)
	assert.InDelta(t, 0.85, extraction.RelevanceScore, 1e-9)
	assert.NotEmpty(t, extraction.Raw)
}

func TestExtract_ExhaustedRetriesReturnError(t *testing.T) {
	fake := &scriptedCompleter{
		errs: []error{errors.New("503"), errors.New("503"), errors.New("503")},
	}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "some content", "")

	require.ErrorIs(t, err, repository.ErrExtractionFailed)
	assert.Nil(t, extraction)
	assert.Equal(t, 3, fake.calls)
}

func TestExtract_UnparseableResponseDoesNotRetry(t *testing.T) {
	fake := &scriptedCompleter{texts: []string{"I cannot produce JSON, sorry."}}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "some content", "")

	require.NoError(t, err)
	assert.Nil(t, extraction)
	assert.Equal(t, 1, fake.calls, "a malformed payload is not a transient failure")
}

func TestExtract_InvalidSchemaDoesNotRetry(t *testing.T) {
	fake := &scriptedCompleter{texts: []string{`{
		"is_event_related": true,
		"event_type": "flash_mob",
		"event_timing": "future",
		"relevance_score": 1.5,
		"summary": "out of range"
	}`}}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "some content", "")

	require.NoError(t, err)
	assert.Nil(t, extraction)
	assert.Equal(t, 1, fake.calls)
}

func TestExtract_EmptyContentSkipsAPI(t *testing.T) {
	fake := &scriptedCompleter{}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "   \n\t", "someone")

	require.NoError(t, err)
	assert.Nil(t, extraction)
	assert.Zero(t, fake.calls)
}

func TestExtract_UnwrapsCodeFence(t *testing.T) {
	fake := &scriptedCompleter{texts: []string{"```json\n" + validExtractionJSON + "\n```"}}
	extractor := newTestExtractor(fake, 3)

	extraction, err := extractor.Extract(context.Background(), "Join our webinar!", "")

	require.NoError(t, err)
	require.NotNil(t, extraction)
	assert.Equal(t, "Acme Corp announces a webinar", extraction.Summary)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripCodeFence(tc.in))
		})
	}
}

func TestNewExtractor_RequiresAPIKey(t *testing.T) {
	_, err := NewExtractor("", "", 0, zap.NewNop())
	require.ErrorIs(t, err, repository.ErrNotConfigured)
}
