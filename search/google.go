package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// The API returns at most ten hits per request; bound the paging loop so a
// large maxResults cannot burn quota.
const googleMaxRequests = 3

// GoogleClient queries the Google Custom Search API. Every failure mode,
// rate limiting included, degrades to an empty result set so the caller
// moves on to the fallback provider instead of handling errors.
type GoogleClient struct {
	httpClient *http.Client
	logger     *zap.Logger
	apiKey     string
	cseID      string
	endpoint   string
}

func NewGoogleClient(apiKey, cseID string, httpClient *http.Client, logger *zap.Logger) *GoogleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		cseID:      cseID,
		endpoint:   googleEndpoint,
	}
}

// Configured reports whether usable credentials are present. A CSE ID left
// at the env template placeholder counts as unconfigured. Configured does
// not mean valid: a bad key still gets one attempt before falling back.
func (g *GoogleClient) Configured() bool {
	if g.apiKey == "" || g.cseID == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(g.cseID), "your_custom_search_engine_id")
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Fetch runs up to three paged requests of ten hits each, stopping early
// when maxResults is reached or the API has nothing further.
func (g *GoogleClient) Fetch(ctx context.Context, query string, maxResults int) []Record {
	if !g.Configured() {
		g.logger.Info("google: credentials not configured, skipping")
		return nil
	}
	maxResults = clampMaxResults(maxResults)

	numRequests := (maxResults + 9) / 10
	if numRequests > googleMaxRequests {
		numRequests = googleMaxRequests
	}

	var results []Record
	for i := 0; i < numRequests; i++ {
		page, ok := g.fetchPage(ctx, query, i*10+1, min(10, maxResults-len(results)))
		if !ok {
			return nil
		}
		if len(page) == 0 {
			break
		}
		results = append(results, page...)
		if len(results) >= maxResults {
			break
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	g.logger.Info("google: search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results
}

func (g *GoogleClient) fetchPage(ctx context.Context, query string, start, num int) ([]Record, bool) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cseID)
	params.Set("q", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("num", strconv.Itoa(num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		g.logger.Error("google: failed to create request", zap.Error(err))
		return nil, false
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("google: request failed", zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			g.logger.Warn("google: rate limit exceeded")
		} else {
			g.logger.Error("google: unexpected status", zap.Int("status", resp.StatusCode))
		}
		return nil, false
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		g.logger.Error("google: failed to decode response", zap.Error(err))
		return nil, false
	}

	records := make([]Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		records = append(records, Normalize(map[string]string{
			"title":   item.Title,
			"link":    item.Link,
			"snippet": item.Snippet,
		}, KindGoogle))
	}
	return records, true
}
