package search

import "context"

// Mode selects which provider handles a search.
type Mode string

const (
	// ModePrimary forces the credentialed API provider, with the
	// unauthenticated provider as a rescue when it comes back empty.
	ModePrimary Mode = "primary"
	// ModeFallback forces the unauthenticated provider.
	ModeFallback Mode = "fallback"
	// ModeAuto prefers the credentialed provider when configured.
	ModeAuto Mode = "auto"
)

// Record is the canonical shape every provider hit is normalized into.
// Fields that a provider does not supply are empty strings, never absent.
type Record struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Request describes one search call.
type Request struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Mode       Mode   `json:"mode,omitempty"`
	News       bool   `json:"news,omitempty"`
}

// Primary is a credentialed provider tried first when its credentials are
// configured. It signals failure with an empty result set, never an error.
type Primary interface {
	Configured() bool
	Fetch(ctx context.Context, query string, maxResults int) []Record
}

// Fallback is the unauthenticated provider of last resort. It owns its own
// retry budget and likewise degrades to an empty result set.
type Fallback interface {
	Fetch(ctx context.Context, query string, maxResults int) []Record
	FetchNews(ctx context.Context, query string, maxResults int) []Record
}

// Providers cap results to avoid triggering aggressive rate limits.
const maxResultsCap = 20

func clampMaxResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxResultsCap {
		return maxResultsCap
	}
	return n
}
