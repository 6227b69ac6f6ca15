package sitematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.Example.com/", "example.com"},
		{"example.com", "example.com"},
		{"http://example.com", "example.com"},
		{"HTTPS://EXAMPLE.COM", "example.com"},
		{"www.example.com/", "example.com"},
		{"https://sub.example.com/path", "sub.example.com/path"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.raw), "Normalize(%q)", tt.raw)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.Example.com/",
		"www.cateringbear.com",
		"http://a.b.c/d/",
		"",
		"到會.example",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", raw)
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	assert.Equal(t, Normalize("example.com"), Normalize("https://www.Example.com/"))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("cateringbear.com", "https://cateringbear.com/page"))
	assert.True(t, Matches("cateringbear.com", "https://www.cateringbear.com"))
	assert.True(t, Matches("example.com", "https://blog.example.com/post/1"))
	assert.False(t, Matches("kamadelivery.com", "https://cateringbear.com/page"))
}

func TestMatchesEmptyTrackedNeverMatches(t *testing.T) {
	assert.False(t, Matches("", "https://example.com"))
	assert.False(t, Matches("", ""))
}
