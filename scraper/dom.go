package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractWithDOM is the last-resort tier: strip the obvious chrome and
// collect whatever prose the page carries.
func (s *Scraper) extractWithDOM(body []byte, pageURL string) (*Source, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var texts []string
	doc.Find("main, article, section, p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 10 {
			texts = append(texts, text)
		}
	})

	if len(texts) == 0 {
		doc.Find("div").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				texts = append(texts, text)
			}
		})
	}

	text := collapseWhitespace(strings.Join(texts, " "))
	if len(text) < minTextChars {
		return nil, errors.New("insufficient content")
	}

	return &Source{
		URL:   pageURL,
		Title: title,
		Text:  capText(text),
	}, nil
}
