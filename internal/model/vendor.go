package model

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// VendorStatus is the approval state of a vendor record. Vendors
// created by the pipeline from scraped listings are auto-approved.
type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorApproved VendorStatus = "approved"
)

// Vendor is a supplying vendor resolved or created during ingestion.
// One vendor exists per distinct company name; lookup is exact-string.
type Vendor struct {
	ID          string       `json:"id"`
	CompanyName string       `json:"company_name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	Website     string       `json:"website,omitempty"`
	Status      VendorStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// slugFold strips combining marks so accented vendor names produce
// clean ASCII slugs ("Café Fleur" -> "cafe-fleur").
var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a company name: lowercase, accents
// folded, runs of non-alphanumeric characters collapsed to a single
// hyphen, leading/trailing hyphens stripped.
func Slugify(name string) string {
	folded, _, err := transform.String(slugFold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
