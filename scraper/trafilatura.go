package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// extractWithTrafilatura is the preferred tier: it yields metadata and a
// content node clean enough to render as markdown for the analysis prompt.
func (s *Scraper) extractWithTrafilatura(body []byte, pageURL string) (*Source, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL: parsedURL,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	text := collapseWhitespace(result.ContentText)
	if len(text) < minTextChars {
		return nil, errors.New("insufficient content extracted")
	}

	src := &Source{
		URL:    pageURL,
		Title:  result.Metadata.Title,
		Text:   capText(text),
		Author: result.Metadata.Author,
	}
	if !result.Metadata.Date.IsZero() {
		src.PublishedDate = result.Metadata.Date.UTC().Format(time.RFC3339)
	}

	if result.ContentNode != nil {
		if nodeHTML, err := renderNode(result.ContentNode); err == nil {
			if md, err := htmltomarkdown.ConvertString(nodeHTML); err == nil {
				src.Markdown = capText(md)
			}
		}
	}
	return src, nil
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
