package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/pkg/anthropic"
)

func testCandidate() model.Candidate {
	return model.Candidate{
		Source:      model.SourceEtsy,
		ExternalID:  "111",
		Name:        "Macrame Backdrop",
		Description: "Hand-knotted backdrop",
		Price:       decimal.NewFromFloat(125.50),
		Currency:    "USD",
		RawCategory: "Wedding Decor",
	}
}

func TestCategorizeParsesResponse(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"category":"decor","subcategory":"backdrops","fulfillment_type":"purchasable","style_tags":["boho","romantic"],"color_palette":["#E8D7C3"],"confidence":0.92}`,
	), nil)

	cat := NewAICategorizer(client, "claude-sonnet-4-5-20250929").Categorize(context.Background(), testCandidate())

	assert.Equal(t, "decor", cat.Category)
	assert.Equal(t, "backdrops", cat.Subcategory)
	assert.Equal(t, model.FulfillmentPurchasable, cat.FulfillmentType)
	assert.Equal(t, []string{"boho", "romantic"}, cat.StyleTags)
	assert.Equal(t, 0.92, cat.Confidence)
	assert.False(t, cat.Fallback)
}

func TestCategorizeStripsCodeFences(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		"```json\n{\"category\":\"linens\",\"fulfillment_type\":\"purchasable\",\"style_tags\":[\"classic\"],\"color_palette\":[\"#FFFFFF\"],\"confidence\":0.8}\n```",
	), nil)

	cat := NewAICategorizer(client, "m").Categorize(context.Background(), testCandidate())
	assert.Equal(t, "linens", cat.Category)
	assert.False(t, cat.Fallback)
}

func TestCategorizeTransportErrorFallsBack(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("overloaded"))

	cat := NewAICategorizer(client, "m").Categorize(context.Background(), testCandidate())
	assert.Equal(t, model.FallbackCategorization(), cat)
	assert.True(t, cat.Fallback)
	assert.Equal(t, 0.3, cat.Confidence)
}

func TestCategorizeUnparsableFallsBack(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		"I think this is probably decor!",
	), nil)

	cat := NewAICategorizer(client, "m").Categorize(context.Background(), testCandidate())
	assert.Equal(t, model.FallbackCategorization(), cat)
}

func TestCategorizeSanitizesVocabulary(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"category":"gazebos","fulfillment_type":"loan","style_tags":["steampunk","rustic"],"color_palette":[],"confidence":0}`,
	), nil)

	cat := NewAICategorizer(client, "m").Categorize(context.Background(), testCandidate())

	// Unknown category collapses to decor, not to the fallback.
	assert.Equal(t, "decor", cat.Category)
	assert.False(t, cat.Fallback)
	assert.Equal(t, model.FulfillmentPurchasable, cat.FulfillmentType)
	assert.Equal(t, []string{"rustic"}, cat.StyleTags)
	assert.Equal(t, []string{"#FFFFFF"}, cat.ColorPalette)
	assert.Equal(t, 0.5, cat.Confidence)
}

func TestCategorizeAllTagsInvalid(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"category":"florals","fulfillment_type":"purchasable","style_tags":["grunge"],"color_palette":["#fff"],"confidence":1.5}`,
	), nil)

	cat := NewAICategorizer(client, "m").Categorize(context.Background(), testCandidate())
	assert.Equal(t, []string{"classic"}, cat.StyleTags)
	assert.Equal(t, 0.5, cat.Confidence)
}

func TestCategorizeSendsCachedSystemPrompt(t *testing.T) {
	client := &mockAnthropic{}
	var captured anthropic.MessageRequest
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		captured = req
		return true
	})).Return(textResponse(`{"category":"decor","fulfillment_type":"purchasable","style_tags":["classic"],"color_palette":["#FFFFFF"],"confidence":0.7}`), nil)

	NewAICategorizer(client, "claude-sonnet-4-5-20250929").Categorize(context.Background(), testCandidate())

	require.Len(t, captured.System, 1)
	assert.Contains(t, captured.System[0].Text, `"placeSettings"`)
	assert.Contains(t, captured.System[0].Text, `"boho"`)
	require.NotNil(t, captured.System[0].CacheControl)
	assert.Equal(t, "1h", captured.System[0].CacheControl.TTL)
	assert.Equal(t, "claude-sonnet-4-5-20250929", captured.Model)

	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Content, "Macrame Backdrop")
	assert.Contains(t, captured.Messages[0].Content, "Wedding Decor")
}
