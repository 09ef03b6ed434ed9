package domain

import (
	"strings"
)

// SearchSource represents the source for searching tracks.
type SearchSource string

const (
	// SourceYouTube searches YouTube.
	SourceYouTube SearchSource = "ytsearch"
	// SourceYouTubeMusic searches YouTube Music.
	SourceYouTubeMusic SearchSource = "ytmsearch"
	// SourceSoundCloud searches SoundCloud.
	SourceSoundCloud SearchSource = "scsearch"
	// SourceDirect indicates a direct URL (no search prefix).
	SourceDirect SearchSource = ""
)

// SearchQuery represents user input that will be turned into a load identifier.
type SearchQuery struct {
	Query  string       // The search term or URL
	Source SearchSource // The search source
	IsURL  bool         // Whether the query is a direct URL
}

// NewSearchQuery creates a SearchQuery from user input.
// URLs are passed through untouched, anything else searches YouTube.
func NewSearchQuery(input string) *SearchQuery {
	return NewSearchQueryWithSource(input, SourceYouTube)
}

// NewSearchQueryWithSource creates a SearchQuery with a specific source.
func NewSearchQueryWithSource(input string, source SearchSource) *SearchQuery {
	input = strings.TrimSpace(input)
	// Discord wraps links in <> to suppress embeds.
	input = strings.TrimSuffix(strings.TrimPrefix(input, "<"), ">")

	if isURL(input) || hasSearchPrefix(input) {
		return &SearchQuery{
			Query:  input,
			Source: SourceDirect,
			IsURL:  isURL(input),
		}
	}

	return &SearchQuery{
		Query:  input,
		Source: source,
		IsURL:  false,
	}
}

// Identifier returns the query string formatted for the resolver.
func (q *SearchQuery) Identifier() string {
	if q.Source == SourceDirect {
		return q.Query
	}
	return string(q.Source) + ":" + q.Query
}

// IsValid returns true if the query is not empty.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}

func hasSearchPrefix(input string) bool {
	for _, s := range []SearchSource{SourceYouTube, SourceYouTubeMusic, SourceSoundCloud} {
		if strings.HasPrefix(input, string(s)+":") {
			return true
		}
	}
	return false
}
