package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateAffiliateURL(t *testing.T) {
	c := Candidate{SourceURL: "https://example.com/item/1"}
	assert.Equal(t, "https://example.com/item/1", c.AffiliateURL())

	c.Metadata = map[string]any{"affiliate_url": "https://example.com/item/1?tag=aff-20"}
	assert.Equal(t, "https://example.com/item/1?tag=aff-20", c.AffiliateURL())

	c.Metadata = map[string]any{"affiliate_url": ""}
	assert.Equal(t, "https://example.com/item/1", c.AffiliateURL())
}
