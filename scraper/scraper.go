package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// Stored text is capped so one sprawling page cannot dominate the
	// analysis context.
	maxTextBytes = 10000
	// Pages yielding less than this are treated as extraction failures
	// (consent walls, empty shells) and fall through to the next tier.
	minTextChars = 50

	maxBodyBytes = 2 << 20

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Source is the readable content extracted from one result URL.
type Source struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Text          string `json:"text"`
	Markdown      string `json:"markdown,omitempty"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// Scraper fetches result pages and runs them through a three-tier
// extraction chain: trafilatura, then readability, then a bare DOM sweep.
type Scraper struct {
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

func NewScraper(httpClient *http.Client, logger *zap.Logger) *Scraper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scraper{
		httpClient: httpClient,
		logger:     logger,
		userAgent:  defaultUserAgent,
	}
}

// ScrapeURL downloads one page and extracts its readable text. Failures
// are per-source: the caller logs and moves on to the next result.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string) (*Source, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	body, err := s.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if src, err := s.extractWithTrafilatura(body, rawURL); err == nil {
		return src, nil
	} else {
		s.logger.Debug("scraper: trafilatura extraction failed",
			zap.String("url", rawURL), zap.Error(err))
	}

	if src, err := s.extractWithReadability(body, rawURL); err == nil {
		return src, nil
	} else {
		s.logger.Debug("scraper: readability extraction failed",
			zap.String("url", rawURL), zap.Error(err))
	}

	src, err := s.extractWithDOM(body, rawURL)
	if err != nil {
		s.logger.Warn("scraper: failed to extract content",
			zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}
	return src, nil
}

func (s *Scraper) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// capText truncates on a rune boundary at maxTextBytes.
func capText(text string) string {
	if len(text) <= maxTextBytes {
		return text
	}
	cut := maxTextBytes
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
