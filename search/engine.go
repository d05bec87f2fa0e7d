package search

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Engine routes a search to a provider according to the requested mode.
// Explicit preferences are honored even when the preferred provider is
// failing; auto prefers the credentialed provider without being told to.
// Provider failures surface as an empty result set, never as an error,
// which means callers cannot tell "provider down" from "no matches".
type Engine struct {
	primary  Primary
	fallback Fallback
	logger   *zap.Logger
}

func NewEngine(primary Primary, fallback Fallback, logger *zap.Logger) *Engine {
	return &Engine{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Search executes one search call. It is blocking; shells that sit on an
// event loop should run it on a background goroutine.
func (e *Engine) Search(ctx context.Context, req Request) []Record {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil
	}
	maxResults := clampMaxResults(req.MaxResults)
	mode := req.Mode
	if mode == "" {
		mode = ModeAuto
	}

	// The primary provider has no news path, so news always lands on the
	// fallback client's news search.
	if req.News {
		return e.fallback.FetchNews(ctx, query, maxResults)
	}

	switch mode {
	case ModeFallback:
		e.logger.Info("search: using fallback provider (explicit preference)")
		return e.fallback.Fetch(ctx, query, maxResults)

	case ModePrimary:
		if e.primaryConfigured() {
			e.logger.Info("search: using primary provider (explicit preference)")
			if records := e.primary.Fetch(ctx, query, maxResults); len(records) > 0 {
				return records
			}
			e.logger.Warn("search: primary provider failed, falling back")
		} else {
			e.logger.Warn("search: primary provider not configured, using fallback")
		}
		return e.fallback.Fetch(ctx, query, maxResults)

	default:
		if e.primaryConfigured() {
			if records := e.primary.Fetch(ctx, query, maxResults); len(records) > 0 {
				return records
			}
		}
		return e.fallback.Fetch(ctx, query, maxResults)
	}
}

func (e *Engine) primaryConfigured() bool {
	return e.primary != nil && e.primary.Configured()
}
