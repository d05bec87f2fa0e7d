package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"scour/agent"
	"scour/scraper"
	"scour/search"
)

type stubSearcher struct {
	results []search.Record
	lastReq search.Request
}

func (s *stubSearcher) Search(ctx context.Context, req search.Request) []search.Record {
	s.lastReq = req
	return s.results
}

func stubRecords(n int) []search.Record {
	records := make([]search.Record, n)
	for i := range records {
		records[i] = search.Record{
			Title: fmt.Sprintf("result %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return records
}

func newTestServer(searcher agent.Searcher) *Server {
	registry := agent.NewRegistry(func(key agent.Key) (*agent.Agent, error) {
		return agent.New(searcher, failingScraper{}, nil, nil, zap.NewNop()), nil
	})
	return NewServer(searcher, registry, nil, zap.NewNop(), 0)
}

type failingScraper struct{}

func (failingScraper) ScrapeURL(ctx context.Context, url string) (*scraper.Source, error) {
	return nil, fmt.Errorf("no network in tests")
}

func TestSearchHandler(t *testing.T) {
	searcher := &stubSearcher{results: stubRecords(30)}
	server := newTestServer(searcher)

	body := `{"query":"golang","page":1,"per_page":5,"mode":"fallback"}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	rec := httptest.NewRecorder()

	server.SearchHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var page search.PageResult
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(page.Records) != 5 || page.Page != 1 || !page.HasMore {
		t.Errorf("unexpected page: %d records, page=%d, hasMore=%v",
			len(page.Records), page.Page, page.HasMore)
	}
	if page.Records[0].Title != "result 5" {
		t.Errorf("wrong slice start: %q", page.Records[0].Title)
	}

	if searcher.lastReq.Mode != search.ModeFallback {
		t.Errorf("mode not forwarded: %q", searcher.lastReq.Mode)
	}
	if want := search.OverfetchSize(1, 5); searcher.lastReq.MaxResults != want {
		t.Errorf("expected overfetch %d, got %d", want, searcher.lastReq.MaxResults)
	}
}

func TestSearchHandler_Validation(t *testing.T) {
	server := newTestServer(&stubSearcher{})

	testCases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"WrongMethod", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"BadJSON", http.MethodPost, "{", http.StatusBadRequest},
		{"BlankQuery", http.MethodPost, `{"query":"  "}`, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/search", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			server.SearchHandler(rec, req)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestResearchHandler(t *testing.T) {
	searcher := &stubSearcher{results: stubRecords(15)}
	server := newTestServer(searcher)

	body := `{"query":"golang","depth":"quick","per_page":5,"use_ai":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(body))
	rec := httptest.NewRecorder()

	server.ResearchHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var research agent.Research
	if err := json.Unmarshal(rec.Body.Bytes(), &research); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if research.Query != "golang" || len(research.Results) != 5 || !research.HasMore {
		t.Errorf("unexpected research: %+v", research)
	}
}

func TestHistoryHandler_NotConfigured(t *testing.T) {
	server := newTestServer(&stubSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	server.HistoryHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without history, got %d", rec.Code)
	}
}
