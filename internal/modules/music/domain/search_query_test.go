package domain

import (
	"testing"
)

func TestNewSearchQuery(t *testing.T) {
	tests := []struct {
		name               string
		input              string
		expectedIdentifier string
		expectedIsURL      bool
	}{
		{
			name:               "search term",
			input:              "never gonna give you up",
			expectedIdentifier: "ytsearch:never gonna give you up",
		},
		{
			name:               "search term with whitespace",
			input:              "  hello world  ",
			expectedIdentifier: "ytsearch:hello world",
		},
		{
			name:               "https URL",
			input:              "https://youtube.com/watch?v=dQw4w9WgXcQ",
			expectedIdentifier: "https://youtube.com/watch?v=dQw4w9WgXcQ",
			expectedIsURL:      true,
		},
		{
			name:               "URL without embed",
			input:              "<https://youtu.be/abc>",
			expectedIdentifier: "https://youtu.be/abc",
			expectedIsURL:      true,
		},
		{
			name:               "explicit search prefix",
			input:              "scsearch:lofi",
			expectedIdentifier: "scsearch:lofi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewSearchQuery(tt.input)

			if got := q.Identifier(); got != tt.expectedIdentifier {
				t.Errorf("Identifier() = %q, expected %q", got, tt.expectedIdentifier)
			}
			if q.IsURL != tt.expectedIsURL {
				t.Errorf("IsURL = %v, expected %v", q.IsURL, tt.expectedIsURL)
			}
		})
	}
}

func TestSearchQuery_IsValid(t *testing.T) {
	if NewSearchQuery("   ").IsValid() {
		t.Error("expected blank query to be invalid")
	}
	if !NewSearchQueryWithSource("lofi", SourceSoundCloud).IsValid() {
		t.Error("expected query to be valid")
	}
	if got := NewSearchQueryWithSource("lofi", SourceSoundCloud).Identifier(); got != "scsearch:lofi" {
		t.Errorf("expected scsearch:lofi, got %q", got)
	}
}
