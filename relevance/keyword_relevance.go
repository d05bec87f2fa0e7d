package relevance

import (
	"errors"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/kljensen/snowball"
)

var tokenPattern = regexp.MustCompile(`[^\pL\pN]+`)

// QueryFilter scores scraped text against the research query so off-topic
// sources can be dropped before they reach analysis. Query terms are
// stemmed, then matched anywhere in the content, which lets a stem catch
// its inflected forms.
type QueryFilter struct {
	matcher *ahocorasick.Matcher
	stems   []string
}

// NewQueryFilter builds a filter from a free-text query. Words shorter
// than three characters are ignored.
func NewQueryFilter(query string) (*QueryFilter, error) {
	words := tokenPattern.Split(strings.ToLower(query), -1)

	seen := make(map[string]struct{})
	var stems []string
	for _, word := range words {
		if len(word) < 3 {
			continue
		}
		stem := stemWord(word)
		if _, ok := seen[stem]; ok {
			continue
		}
		seen[stem] = struct{}{}
		stems = append(stems, stem)
	}

	if len(stems) == 0 {
		return nil, errors.New("query has no usable terms")
	}

	return &QueryFilter{
		matcher: ahocorasick.NewStringMatcher(stems),
		stems:   stems,
	}, nil
}

// Score returns the fraction of query stems found in the content, and
// whether any matched at all.
func (f *QueryFilter) Score(content string) (float32, bool) {
	if content == "" {
		return 0, false
	}

	matches := f.matcher.MatchThreadSafe([]byte(strings.ToLower(content)))
	if len(matches) == 0 {
		return 0, false
	}

	found := make(map[int]struct{}, len(matches))
	for _, idx := range matches {
		found[idx] = struct{}{}
	}
	return float32(len(found)) / float32(len(f.stems)), true
}

func stemWord(word string) string {
	stem, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stem
}
