package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"time"

	"go.uber.org/zap"

	"scour/agent"
	"scour/analysis"
	"scour/api"
	"scour/config"
	"scour/scraper"
	"scour/search"
)

func main() {
	// =========
	// Profiling
	// =========
	go func() {
		http.ListenAndServe(":6060", nil)
	}()

	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	overrides, err := config.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		log.Fatalf("Failed to load overrides: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	proxyURL := cfg.ProxyFromEnv()
	httpClient := newHTTPClient(proxyURL, 10*time.Second)
	searchClientFactory := func() *http.Client {
		return newHTTPClient(proxyURL, 20*time.Second)
	}

	// =========
	// Search engine
	// =========
	google := search.NewGoogleClient(cfg.GoogleAPIKey, cfg.GoogleCSEID, httpClient, logger)
	buildEngine := func(primary search.Primary) *search.Engine {
		ddg := search.NewDuckDuckGoClient(searchClientFactory, logger)
		ddg.SetEndpoints(overrides.Endpoints)
		if len(overrides.UserAgents) > 0 {
			ddg.SetUserAgent(overrides.UserAgents[0])
		}
		return search.NewEngine(primary, ddg, logger)
	}

	// =========
	// History
	// =========
	history, err := agent.OpenHistory(cfg.HistoryDBPath)
	if err != nil {
		logger.Fatal("failed to open history db", zap.Error(err))
	}
	defer history.Close()

	// =========
	// Agent registry
	// =========
	registry := agent.NewRegistry(func(key agent.Key) (*agent.Agent, error) {
		var analyzer agent.Analyzer
		if key.UseAI && cfg.UseAI {
			a, err := analysis.NewOllamaAnalyzer(cfg.OllamaURL, cfg.OllamaModel, logger)
			if err != nil {
				return nil, err
			}
			analyzer = a
		}
		// Each agent owns its own provider clients; fallback-only agents
		// never consult the credentialed provider, so it is not wired in.
		return agent.New(
			buildEngine(primaryForKey(key, google)),
			scraper.NewScraper(httpClient, logger),
			analyzer,
			history,
			logger,
		), nil
	})
	defer registry.Close()

	// =========
	// API server
	// =========
	server := api.NewServer(buildEngine(google), registry, history, logger, cfg.AppPort)
	if err := server.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// primaryForKey picks the credentialed provider for an agent key. Agents
// keyed to the fallback engine get none; their mode never tries primary.
func primaryForKey(key agent.Key, google search.Primary) search.Primary {
	if key.Engine == string(search.ModeFallback) {
		return nil
	}
	return google
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
