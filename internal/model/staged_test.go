package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackCategorization(t *testing.T) {
	c := FallbackCategorization()

	assert.Equal(t, "decor", c.Category)
	assert.Equal(t, FulfillmentPurchasable, c.FulfillmentType)
	assert.Equal(t, []string{"classic"}, c.StyleTags)
	assert.Equal(t, []string{"#FFFFFF"}, c.ColorPalette)
	assert.Equal(t, 0.3, c.Confidence)
	assert.True(t, c.Fallback)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory("centerpieces"))
	assert.True(t, ValidCategory("decor"))
	assert.False(t, ValidCategory("Decor"))
	assert.False(t, ValidCategory("spaceships"))
	assert.False(t, ValidCategory(""))
}

func TestValidStyleTag(t *testing.T) {
	assert.True(t, ValidStyleTag("boho"))
	assert.False(t, ValidStyleTag("brutalist"))
}

func TestAffiliateNetworkFor(t *testing.T) {
	assert.Equal(t, "amazon", AffiliateNetworkFor(SourceAmazon))
	assert.Equal(t, "awin", AffiliateNetworkFor(SourceEtsy))
	assert.Equal(t, "direct", AffiliateNetworkFor(SourceManual))
	assert.Equal(t, "direct", AffiliateNetworkFor("some-new-feed"))
}
