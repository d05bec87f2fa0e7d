package main

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"scour/agent"
	"scour/search"
)

func TestPrimaryForKey(t *testing.T) {
	google := search.NewGoogleClient("key", "cse-id", &http.Client{Timeout: time.Second}, zap.NewNop())

	testCases := []struct {
		name       string
		key        agent.Key
		wantGoogle bool
	}{
		{"FallbackEngineGetsNoPrimary", agent.Key{Engine: string(search.ModeFallback)}, false},
		{"FallbackWithAI", agent.Key{UseAI: true, Engine: string(search.ModeFallback)}, false},
		{"PrimaryEngine", agent.Key{Engine: string(search.ModePrimary)}, true},
		{"AutoEngine", agent.Key{Engine: string(search.ModeAuto)}, true},
		{"EmptyEngine", agent.Key{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			primary := primaryForKey(tc.key, google)
			if tc.wantGoogle && primary == nil {
				t.Error("expected the credentialed provider, got nil")
			}
			if !tc.wantGoogle && primary != nil {
				t.Error("expected no credentialed provider for a fallback-only agent")
			}
		})
	}
}
