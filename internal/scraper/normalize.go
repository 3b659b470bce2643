package scraper

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/everafter-market/ingest-cli/internal/model"
)

// DefaultDescriptionMaxLength caps cleaned descriptions.
const DefaultDescriptionMaxLength = 500

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
	priceRe = regexp.MustCompile(`[^0-9.]`)
)

// NormalizePrice converts raw price values from any source into a
// decimal. Numbers pass through; strings are stripped of currency
// symbols and separators before parsing. Unparsable values become 0 so
// validation rejects them downstream.
func NormalizePrice(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		cleaned := priceRe.ReplaceAllString(v, "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// CleanDescription strips HTML tags, collapses whitespace, and
// truncates to maxLen. A maxLen of 0 applies the default cap.
func CleanDescription(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultDescriptionMaxLength
	}

	s = tagRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if len(s) > maxLen {
		s = strings.TrimSpace(s[:maxLen])
	}
	return s
}

// ValidateCandidate rejects candidates that cannot be staged: any
// missing identity or display field, a non-positive price, or no
// images.
func ValidateCandidate(c model.Candidate) error {
	if strings.TrimSpace(c.Source) == "" {
		return eris.New("missing source")
	}
	if strings.TrimSpace(c.ExternalID) == "" {
		return eris.New("missing external id")
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		return eris.New("missing source url")
	}
	if strings.TrimSpace(c.Name) == "" {
		return eris.New("missing product name")
	}
	if strings.TrimSpace(c.VendorName) == "" {
		return eris.New("missing vendor name")
	}
	if !c.Price.IsPositive() {
		return eris.New("price must be greater than zero")
	}
	if len(c.Images) == 0 {
		return eris.New("at least one image is required")
	}
	return nil
}
