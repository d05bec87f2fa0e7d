package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// extractWithReadability is the second tier for pages trafilatura rejects.
func (s *Scraper) extractWithReadability(body []byte, pageURL string) (*Source, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	text := collapseWhitespace(article.TextContent)
	if len(text) < minTextChars {
		return nil, errors.New("insufficient content extracted")
	}

	return &Source{
		URL:    pageURL,
		Title:  article.Title,
		Text:   capText(text),
		Author: article.Byline,
	}, nil
}
