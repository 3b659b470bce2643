package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentType describes how a product is delivered to the customer.
type FulfillmentType string

const (
	FulfillmentPurchasable FulfillmentType = "purchasable"
	FulfillmentRental      FulfillmentType = "rental"
	FulfillmentService     FulfillmentType = "service"
)

// ReviewStatus tracks where a staged product sits in the human review
// queue. Only the review collaborator moves it past pending; the
// ingestion pipeline never mutates it.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewReviewed ReviewStatus = "reviewed"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ValidCategories is the controlled vocabulary the categorizer may
// assign. Anything outside it collapses to "decor".
var ValidCategories = []string{
	"centerpieces", "linens", "chairs", "lighting", "placeSettings",
	"decor", "florals", "furniture", "tableware", "signage", "favors",
	"other",
}

// ValidStyleTags is the controlled vocabulary for style tags.
var ValidStyleTags = []string{
	"romantic", "modern", "rustic", "boho", "classic", "vintage",
	"minimalist", "elegant", "industrial", "eclectic", "coastal",
	"garden",
}

// Categorization is the outcome of the AI classification step.
// Fallback distinguishes real model output from the safe default used
// when the call or parse failed, so downstream consumers and tests can
// tell them apart. Confidence is always set, never zero-valued by
// accident: real output defaults to 0.5 when the model omits it, the
// fallback carries the fixed 0.3.
type Categorization struct {
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory,omitempty"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	StyleTags       []string        `json:"style_tags"`
	ColorPalette    []string        `json:"color_palette"`
	Confidence      float64         `json:"confidence"`
	Fallback        bool            `json:"fallback"`
}

// FallbackCategorization returns the fixed safe-default classification
// used whenever the AI call fails or its response cannot be parsed.
func FallbackCategorization() Categorization {
	return Categorization{
		Category:        "decor",
		FulfillmentType: FulfillmentPurchasable,
		StyleTags:       []string{"classic"},
		ColorPalette:    []string{"#FFFFFF"},
		Confidence:      0.3,
		Fallback:        true,
	}
}

// ValidCategory reports whether the given category is in the
// controlled vocabulary.
func ValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidStyleTag reports whether the given style tag is in the
// controlled vocabulary.
func ValidStyleTag(t string) bool {
	for _, v := range ValidStyleTags {
		if v == t {
			return true
		}
	}
	return false
}

// StagedProduct is a persisted, categorized candidate awaiting human
// review in the admin queue.
type StagedProduct struct {
	ID           string          `json:"id"`
	BatchID      string          `json:"batch_id"`
	Source       string          `json:"source"`
	ExternalID   string          `json:"external_id"`
	SourceURL    string          `json:"source_url"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	RawCategory  string          `json:"raw_category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Images       []string        `json:"images"`
	PrimaryImage string          `json:"primary_image"`
	VendorID     string          `json:"vendor_id"`
	VendorName   string          `json:"vendor_name"`
	VendorURL    string          `json:"vendor_url,omitempty"`
	Suggested    Categorization  `json:"suggested"`
	AffiliateNet string          `json:"affiliate_network"`
	AffiliateURL string          `json:"affiliate_url"`
	ReviewStatus ReviewStatus    `json:"review_status"`
	RawData      map[string]any  `json:"raw_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
