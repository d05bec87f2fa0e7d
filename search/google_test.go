package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func googleItemsJSON(start, count int) string {
	items := make([]string, count)
	for i := range items {
		n := start + i
		items[i] = fmt.Sprintf(
			`{"title":"result %d","link":"https://example.com/%d","snippet":"snippet %d"}`, n, n, n)
	}
	return `{"items":[` + strings.Join(items, ",") + `]}`
}

func newGoogleTestClient(t *testing.T, handler http.HandlerFunc) (*GoogleClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGoogleClient("test-key", "test-cse", srv.Client(), zap.NewNop())
	client.endpoint = srv.URL
	return client, srv
}

func TestGoogleClient_PagedFetch(t *testing.T) {
	var starts []string
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		if start == "1" {
			fmt.Fprint(w, googleItemsJSON(0, 10))
			return
		}
		fmt.Fprint(w, googleItemsJSON(10, 5))
	})

	records := client.Fetch(context.Background(), "golang", 15)

	if len(records) != 15 {
		t.Fatalf("expected 15 records, got %d", len(records))
	}
	if len(starts) != 2 || starts[0] != "1" || starts[1] != "11" {
		t.Errorf("expected paged starts [1 11], got %v", starts)
	}
	if records[10].URL != "https://example.com/10" {
		t.Errorf("unexpected record ordering: %+v", records[10])
	}
}

func TestGoogleClient_MaxResultsRespected(t *testing.T) {
	for _, maxResults := range []int{1, 5, 10, 20} {
		requests := 0
		client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			fmt.Fprint(w, googleItemsJSON(0, 10))
		})

		records := client.Fetch(context.Background(), "golang", maxResults)
		if len(records) > maxResults {
			t.Errorf("maxResults=%d: got %d records", maxResults, len(records))
		}
		if maxResults <= 10 && requests != 1 {
			t.Errorf("maxResults=%d: expected a single request, got %d", maxResults, requests)
		}
	}
}

func TestGoogleClient_RateLimitReturnsEmpty(t *testing.T) {
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if records := client.Fetch(context.Background(), "golang", 5); records != nil {
		t.Errorf("expected empty result on 429, got %d records", len(records))
	}
}

func TestGoogleClient_ServerErrorReturnsEmpty(t *testing.T) {
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if records := client.Fetch(context.Background(), "golang", 5); records != nil {
		t.Errorf("expected empty result on server error, got %d records", len(records))
	}
}

func TestGoogleClient_UnconfiguredShortCircuits(t *testing.T) {
	testCases := []struct {
		name   string
		apiKey string
		cseID  string
	}{
		{"MissingKey", "", "test-cse"},
		{"MissingCSE", "test-key", ""},
		{"PlaceholderCSE", "test-key", "YOUR_CUSTOM_SEARCH_ENGINE_ID"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requests := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
			}))
			defer srv.Close()

			client := NewGoogleClient(tc.apiKey, tc.cseID, srv.Client(), zap.NewNop())
			client.endpoint = srv.URL

			if client.Configured() {
				t.Error("expected Configured() == false")
			}
			if records := client.Fetch(context.Background(), "golang", 5); records != nil {
				t.Errorf("expected empty result, got %d records", len(records))
			}
			if requests != 0 {
				t.Errorf("expected no requests, got %d", requests)
			}
		})
	}
}

func TestGoogleClient_StopsWhenProviderRunsDry(t *testing.T) {
	requests := 0
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, googleItemsJSON(0, 10))
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	})

	records := client.Fetch(context.Background(), "golang", 20)

	if len(records) != 10 {
		t.Errorf("expected 10 records, got %d", len(records))
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
}
