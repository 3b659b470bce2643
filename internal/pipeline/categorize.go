package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/resilience"
	"github.com/everafter-market/ingest-cli/pkg/anthropic"
)

// Categorizer assigns a category suggestion to a candidate. It never
// returns an error: any failure produces the fixed fallback so one
// flaky AI call cannot fail an import.
type Categorizer interface {
	Categorize(ctx context.Context, c model.Candidate) model.Categorization
}

// AICategorizer implements Categorizer with the Anthropic API.
type AICategorizer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAICategorizer creates the AI-backed categorizer.
func NewAICategorizer(client anthropic.Client, modelName string) *AICategorizer {
	return &AICategorizer{
		client:    client,
		model:     modelName,
		maxTokens: 1024,
	}
}

const categorizePromptTemplate = `You classify wedding marketplace products. Respond with a single JSON object and nothing else, using exactly these keys:

{
  "category": one of [%s],
  "subcategory": short free-text string or "",
  "fulfillment_type": one of ["purchasable", "rental", "service"],
  "style_tags": array of one to three values from [%s],
  "color_palette": array of one to three hex color strings like "#F5E6D3",
  "confidence": number between 0 and 1
}

Choose the closest category; use "decor" when unsure.`

func categorizeSystemPrompt() string {
	return fmt.Sprintf(categorizePromptTemplate,
		quoteJoin(model.ValidCategories),
		quoteJoin(model.ValidStyleTags),
	)
}

func quoteJoin(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

// Categorize classifies one candidate. A transport error, unparsable
// response, or empty reply all collapse to the fallback.
func (a *AICategorizer) Categorize(ctx context.Context, c model.Candidate) model.Categorization {
	userPrompt := fmt.Sprintf(
		"Product: %s\nSource: %s\nSource category: %s\nPrice: %s %s\nDescription: %s",
		c.Name, c.Source, c.RawCategory, c.Price.String(), c.Currency, c.Description,
	)

	temp := 0.2
	resp, err := resilience.Do(ctx, resilience.DefaultPolicy(), "categorize", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       a.model,
			MaxTokens:   a.maxTokens,
			System:      anthropic.BuildCachedSystemBlocks(categorizeSystemPrompt()),
			Messages:    []anthropic.Message{{Role: "user", Content: userPrompt}},
			Temperature: &temp,
		})
	})
	if err != nil {
		zap.L().Warn("categorize: ai call failed, using fallback",
			zap.String("product", c.Name),
			zap.Error(err),
		)
		return model.FallbackCategorization()
	}

	cat, err := parseCategorization(resp.Text())
	if err != nil {
		zap.L().Warn("categorize: unparsable ai response, using fallback",
			zap.String("product", c.Name),
			zap.Error(err),
		)
		return model.FallbackCategorization()
	}

	return sanitizeCategorization(cat, c.Name)
}

// parseCategorization extracts the JSON object from the model reply,
// tolerating markdown code fences.
func parseCategorization(text string) (model.Categorization, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var cat model.Categorization
	if err := json.Unmarshal([]byte(text), &cat); err != nil {
		return model.Categorization{}, err
	}
	return cat, nil
}

// sanitizeCategorization clamps model output to the controlled
// vocabularies so a creative reply never leaks an unknown label.
func sanitizeCategorization(cat model.Categorization, product string) model.Categorization {
	if !model.ValidCategory(cat.Category) {
		zap.L().Warn("categorize: unknown category, collapsing to decor",
			zap.String("product", product),
			zap.String("category", cat.Category),
		)
		cat.Category = "decor"
	}

	switch cat.FulfillmentType {
	case model.FulfillmentPurchasable, model.FulfillmentRental, model.FulfillmentService:
	default:
		cat.FulfillmentType = model.FulfillmentPurchasable
	}

	tags := cat.StyleTags[:0:0]
	for _, t := range cat.StyleTags {
		if model.ValidStyleTag(t) {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = []string{"classic"}
	}
	cat.StyleTags = tags

	if len(cat.ColorPalette) == 0 {
		cat.ColorPalette = []string{"#FFFFFF"}
	}

	if cat.Confidence <= 0 || cat.Confidence > 1 {
		cat.Confidence = 0.5
	}

	cat.Fallback = false
	return cat
}
