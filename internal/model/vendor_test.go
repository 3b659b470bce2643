package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Bella Decor", "bella-decor"},
		{"punctuation collapses", "Bella & Decor Co.", "bella-decor-co"},
		{"accents folded", "Café Fleur", "cafe-fleur"},
		{"leading and trailing junk", "--Premier Linens!!", "premier-linens"},
		{"numbers kept", "Studio 54 Rentals", "studio-54-rentals"},
		{"empty", "", ""},
		{"only symbols", "&&&", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
