package search

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		raw  map[string]string
		kind Kind
		want Record
	}{
		{
			name: "GoogleItem",
			raw:  map[string]string{"title": "Go", "link": "https://go.dev", "snippet": "The Go language"},
			kind: KindGoogle,
			want: Record{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"},
		},
		{
			name: "DuckDuckGoHrefAndBody",
			raw:  map[string]string{"title": "Go", "href": "https://go.dev", "body": "The Go language"},
			kind: KindDuckDuckGo,
			want: Record{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"},
		},
		{
			name: "DuckDuckGoUrlAndSnippetAliases",
			raw:  map[string]string{"title": "Go", "url": "https://go.dev", "snippet": "alias fields"},
			kind: KindDuckDuckGo,
			want: Record{Title: "Go", URL: "https://go.dev", Snippet: "alias fields"},
		},
		{
			name: "NewsFields",
			raw: map[string]string{
				"title": "Release", "url": "https://example.com", "body": "shipped",
				"date": "2024-03-01T00:00:00Z", "source": "Example Wire",
			},
			kind: KindDuckDuckGo,
			want: Record{
				Title: "Release", URL: "https://example.com", Snippet: "shipped",
				Date: "2024-03-01T00:00:00Z", Source: "Example Wire",
			},
		},
		{
			name: "MissingFieldsBecomeEmpty",
			raw:  map[string]string{},
			kind: KindDuckDuckGo,
			want: Record{},
		},
		{
			name: "UnknownFieldsIgnored",
			raw:  map[string]string{"weird": "value", "title": "kept"},
			kind: KindGoogle,
			want: Record{Title: "kept"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.raw, tc.kind); got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
