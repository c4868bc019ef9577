package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/sitemap.xml", true},
		{"http://127.0.0.1:8080/a.xml", true},
		{"", false},
		{"/relative/sitemap.xml", false},
		{"ftp://example.com/sitemap.xml", false},
		{"https:///nohost.xml", false},
		{"https://example.com/a b.xml", false},
		{"https://example.com/" + strings.Repeat("a", 2100), false},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.valid && err != nil {
			t.Errorf("ValidateURL(%q) unexpected error: %v", tt.url, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidURL) {
			t.Errorf("ValidateURL(%q) expected ErrInvalidURL, got %v", tt.url, err)
		}
	}
}
