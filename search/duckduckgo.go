package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Backend names for the DuckDuckGo rotation. Each one is a distinct
// endpoint of the same provider, so a throttled endpoint can be sidestepped
// without losing the provider entirely.
const (
	BackendAPI  = "api"
	BackendHTML = "html"
	BackendLite = "lite"
)

const (
	ddgMaxAttempts = 5

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

var defaultEndpoints = map[string]string{
	BackendAPI:  "https://api.duckduckgo.com/",
	BackendHTML: "https://html.duckduckgo.com/html/",
	BackendLite: "https://lite.duckduckgo.com/lite/",
	"news":      "https://duckduckgo.com/news.js",
	"vqd":       "https://duckduckgo.com/",
}

// errRateLimited marks failures that should rotate the backend and pace
// the next attempt with exponential backoff rather than a fixed pause.
var errRateLimited = errors.New("rate limited")

// Sleeper pauses between retries. Injectable so tests do not wait.
type Sleeper func(time.Duration)

// DuckDuckGoClient is the unauthenticated fallback provider. It rotates
// across the api, html and lite endpoints, rebuilding its HTTP client on
// every failure, and degrades to an empty result set once its retry budget
// is spent. Each call owns its own attempt state and HTTP client; only the
// backend rotation slot persists across calls, behind a mutex, so the
// client is safe for concurrent searches. SetEndpoints and SetUserAgent
// are wiring-time configuration and must happen before the first search.
type DuckDuckGoClient struct {
	newClient func() *http.Client
	logger    *zap.Logger
	backoff   *Backoff
	sleep     Sleeper
	backends  []string
	endpoints map[string]string
	userAgent string

	mu         sync.Mutex
	backendIdx int
}

func NewDuckDuckGoClient(newClient func() *http.Client, logger *zap.Logger) *DuckDuckGoClient {
	if newClient == nil {
		newClient = func() *http.Client {
			return &http.Client{Timeout: 20 * time.Second}
		}
	}
	endpoints := make(map[string]string, len(defaultEndpoints))
	for k, v := range defaultEndpoints {
		endpoints[k] = v
	}
	return &DuckDuckGoClient{
		newClient: newClient,
		logger:    logger,
		backoff:   NewBackoff(),
		sleep:     time.Sleep,
		backends:  []string{BackendAPI, BackendHTML, BackendLite},
		endpoints: endpoints,
		userAgent: defaultUserAgent,
	}
}

// SetEndpoints replaces endpoint URLs by backend name. Unknown names are
// ignored; names absent from the map keep their defaults.
func (d *DuckDuckGoClient) SetEndpoints(endpoints map[string]string) {
	for name, u := range endpoints {
		if _, ok := d.endpoints[name]; ok && u != "" {
			d.endpoints[name] = u
		}
	}
}

func (d *DuckDuckGoClient) SetUserAgent(ua string) {
	if ua != "" {
		d.userAgent = ua
	}
}

func (d *DuckDuckGoClient) currentBackend() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backends[d.backendIdx%len(d.backends)]
}

func (d *DuckDuckGoClient) rotateBackend() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backendIdx = (d.backendIdx + 1) % len(d.backends)
}

// Fetch runs a text search with up to five attempts. Rate limits rotate
// the backend and back off exponentially; other failures retry the same
// backend after a fixed short pause. Exhaustion returns an empty set with
// the last error logged, never raised.
func (d *DuckDuckGoClient) Fetch(ctx context.Context, query string, maxResults int) []Record {
	maxResults = clampMaxResults(maxResults)

	httpClient := d.newClient()
	var lastErr error
	for attempt := 0; attempt < ddgMaxAttempts; attempt++ {
		backend := d.currentBackend()
		records, err := d.fetchOnce(ctx, httpClient, query, maxResults, backend)
		if err == nil {
			return records
		}
		lastErr = err

		httpClient = d.newClient()
		if errors.Is(err, errRateLimited) {
			d.rotateBackend()
			if attempt < ddgMaxAttempts-1 {
				delay := d.backoff.NextDelay(attempt)
				d.logger.Info("duckduckgo: rate limited, backing off",
					zap.String("backend", backend),
					zap.Duration("delay", delay))
				d.sleep(delay)
			}
			continue
		}
		if attempt < ddgMaxAttempts-1 {
			d.logger.Debug("duckduckgo: attempt failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			d.sleep(time.Second)
		}
	}

	d.logger.Error("duckduckgo: search failed after retries", zap.Error(lastErr))
	return nil
}

// FetchNews runs a news search with the same retry budget, always paced by
// backoff. When every attempt fails it degrades to a text search with
// " news" appended rather than failing outright.
func (d *DuckDuckGoClient) FetchNews(ctx context.Context, query string, maxResults int) []Record {
	maxResults = clampMaxResults(maxResults)

	httpClient := d.newClient()
	var lastErr error
	for attempt := 0; attempt < ddgMaxAttempts; attempt++ {
		records, err := d.newsOnce(ctx, httpClient, query, maxResults)
		if err == nil {
			return records
		}
		lastErr = err

		httpClient = d.newClient()
		if attempt < ddgMaxAttempts-1 {
			d.sleep(d.backoff.NextDelay(attempt))
		}
	}

	d.logger.Error("duckduckgo: news search failed after retries, falling back to text search",
		zap.Error(lastErr))
	return d.Fetch(ctx, query+" news", maxResults)
}

func (d *DuckDuckGoClient) fetchOnce(ctx context.Context, httpClient *http.Client, query string, maxResults int, backend string) ([]Record, error) {
	switch backend {
	case BackendHTML:
		return d.fetchSERP(ctx, httpClient, d.endpoints[BackendHTML], query, maxResults)
	case BackendLite:
		return d.fetchSERP(ctx, httpClient, d.endpoints[BackendLite], query, maxResults)
	default:
		return d.fetchInstantAnswer(ctx, httpClient, query, maxResults)
	}
}

func (d *DuckDuckGoClient) get(ctx context.Context, httpClient *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusTooManyRequests, http.StatusForbidden, http.StatusAccepted:
		// 202 and 403 are how DuckDuckGo serves its anti-bot challenge.
		resp.Body.Close()
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, errRateLimited)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type instantAnswerResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Heading       string     `json:"Heading"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// fetchInstantAnswer queries the JSON instant answer endpoint, flattening
// the abstract and related topics into records.
func (d *DuckDuckGoClient) fetchInstantAnswer(ctx context.Context, httpClient *http.Client, query string, maxResults int) ([]Record, error) {
	reqURL := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1",
		d.endpoints[BackendAPI], url.QueryEscape(query))

	resp, err := d.get(ctx, httpClient, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed instantAnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse instant answer response: %w", err)
	}

	var records []Record
	if parsed.AbstractText != "" {
		records = append(records, Normalize(map[string]string{
			"title": parsed.Heading,
			"url":   parsed.AbstractURL,
			"body":  parsed.AbstractText,
		}, KindDuckDuckGo))
	}

	var appendTopic func(topic ddgTopic)
	appendTopic = func(topic ddgTopic) {
		if len(records) >= maxResults {
			return
		}
		if topic.Text != "" {
			title, snippet := splitTopicText(topic.Text)
			records = append(records, Normalize(map[string]string{
				"title": title,
				"url":   topic.FirstURL,
				"body":  snippet,
			}, KindDuckDuckGo))
		}
		for _, child := range topic.Topics {
			appendTopic(child)
		}
	}
	for _, topic := range parsed.RelatedTopics {
		appendTopic(topic)
	}

	if len(records) > maxResults {
		records = records[:maxResults]
	}
	return records, nil
}

// splitTopicText separates an instant answer topic of the form
// "Title - description" into its parts.
func splitTopicText(text string) (string, string) {
	parts := strings.SplitN(text, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(text), ""
}

// fetchSERP scrapes the html or lite result page. Both use the same result
// classes, the lite page just carries less chrome around them.
func (d *DuckDuckGoClient) fetchSERP(ctx context.Context, httpClient *http.Client, endpoint, query string, maxResults int) ([]Record, error) {
	reqURL := fmt.Sprintf("%s?q=%s&kl=wt-wt", endpoint, url.QueryEscape(query))

	resp, err := d.get(ctx, httpClient, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	var records []Record
	doc.Find(".result, .web-result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		titleEl := s.Find("h2 a, a.result__a, a.result-link").First()
		title := strings.TrimSpace(titleEl.Text())
		href, ok := titleEl.Attr("href")
		if title == "" || !ok {
			return true
		}

		snippet := strings.TrimSpace(s.Find(".result__snippet, .result-snippet").First().Text())
		records = append(records, Normalize(map[string]string{
			"title": title,
			"href":  unwrapRedirect(href),
			"body":  snippet,
		}, KindDuckDuckGo))
		return len(records) < maxResults
	})

	// The lite page lays results out as bare table rows.
	if len(records) == 0 {
		doc.Find("a.result-link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			title := strings.TrimSpace(s.Text())
			href, ok := s.Attr("href")
			if title == "" || !ok {
				return true
			}
			snippet := strings.TrimSpace(s.Closest("tr").NextFiltered("tr").Find(".result-snippet").Text())
			records = append(records, Normalize(map[string]string{
				"title": title,
				"href":  unwrapRedirect(href),
				"body":  snippet,
			}, KindDuckDuckGo))
			return len(records) < maxResults
		})
	}

	return records, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect links to the
// destination URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/?") && !strings.HasPrefix(href, "/l/?") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

var vqdPattern = regexp.MustCompile(`vqd=["']?([\d-]+)`)

type newsResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Excerpt string `json:"excerpt"`
		Date    int64  `json:"date"`
		Source  string `json:"source"`
	} `json:"results"`
}

// newsOnce performs one news search: fetch the vqd token the news endpoint
// demands, then query it for JSON results.
func (d *DuckDuckGoClient) newsOnce(ctx context.Context, httpClient *http.Client, query string, maxResults int) ([]Record, error) {
	vqd, err := d.fetchVQD(ctx, httpClient, query)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?l=wt-wt&o=json&noamp=1&q=%s&vqd=%s",
		d.endpoints["news"], url.QueryEscape(query), url.QueryEscape(vqd))

	resp, err := d.get(ctx, httpClient, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	records := make([]Record, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		if len(records) >= maxResults {
			break
		}
		date := ""
		if item.Date > 0 {
			date = time.Unix(item.Date, 0).UTC().Format(time.RFC3339)
		}
		records = append(records, Normalize(map[string]string{
			"title":  item.Title,
			"url":    item.URL,
			"body":   item.Excerpt,
			"date":   date,
			"source": item.Source,
		}, KindDuckDuckGo))
	}
	return records, nil
}

func (d *DuckDuckGoClient) fetchVQD(ctx context.Context, httpClient *http.Client, query string) (string, error) {
	reqURL := fmt.Sprintf("%s?q=%s&ia=news", d.endpoints["vqd"], url.QueryEscape(query))

	resp, err := d.get(ctx, httpClient, reqURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse vqd page: %w", err)
	}

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render vqd page: %w", err)
	}
	match := vqdPattern.FindStringSubmatch(html)
	if match == nil {
		return "", errors.New("vqd token not found")
	}
	return match[1], nil
}
