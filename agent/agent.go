package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scour/relevance"
	"scour/scraper"
	"scour/search"
)

// Depth controls how far a research call goes: search only, search plus
// scraping, or the full pipeline including analysis.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

const defaultPerPage = 5

// Request describes one research call.
type Request struct {
	Query    string      `json:"query"`
	Depth    Depth       `json:"depth,omitempty"`
	Mode     search.Mode `json:"mode,omitempty"`
	News     bool        `json:"news,omitempty"`
	Page     int         `json:"page,omitempty"`
	PerPage  int         `json:"per_page,omitempty"`
	Progress func(string) `json:"-"`
}

// Research is the outcome of one call. Err carries the "no results"
// condition as data, mirroring how the search layer reports provider
// failure and genuine emptiness identically.
type Research struct {
	ID        string           `json:"id"`
	Query     string           `json:"query"`
	Timestamp time.Time        `json:"timestamp"`
	Results   []search.Record  `json:"search_results"`
	Sources   []scraper.Source `json:"sources"`
	Analysis  string           `json:"analysis,omitempty"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
	HasMore   bool             `json:"has_more"`
	Err       string           `json:"error,omitempty"`
}

// Searcher runs one search call; see search.Engine.
type Searcher interface {
	Search(ctx context.Context, req search.Request) []search.Record
}

// Scraper extracts readable text from one result URL.
type Scraper interface {
	ScrapeURL(ctx context.Context, url string) (*scraper.Source, error)
}

// Analyzer summarizes scraped sources.
type Analyzer interface {
	Summarize(ctx context.Context, query string, sources []scraper.Source) (string, error)
}

// Agent coordinates search, scraping and analysis for one configuration.
// Research is blocking, so shells offload it from any foreground loop;
// concurrent calls are safe because each call owns its own state and the
// provider clients synchronize what little they persist.
type Agent struct {
	searcher Searcher
	scraper  Scraper
	analyzer Analyzer
	history  *History
	logger   *zap.Logger
}

// New builds an agent. analyzer may be nil to disable the analysis stage;
// history may be nil to skip persistence.
func New(searcher Searcher, scr Scraper, analyzer Analyzer, history *History, logger *zap.Logger) *Agent {
	return &Agent{
		searcher: searcher,
		scraper:  scr,
		analyzer: analyzer,
		history:  history,
		logger:   logger,
	}
}

// Research runs one research call: overfetched search, pagination, then
// depending on depth the scrape and analysis stages for the current page.
func (a *Agent) Research(ctx context.Context, req Request) *Research {
	perPage := req.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	page := req.Page
	if page < 0 {
		page = 0
	}
	depth := req.Depth
	if depth == "" {
		depth = DepthStandard
	}

	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}
	progress(fmt.Sprintf("Researching: %s", req.Query))

	if req.News {
		progress("Searching the news...")
	} else {
		progress("Searching the web...")
	}

	// Fetch a generous window so HasMore reflects true availability; the
	// search layer caps this at its own limit to keep rate limits at bay.
	all := a.searcher.Search(ctx, search.Request{
		Query:      req.Query,
		MaxResults: search.OverfetchSize(page, perPage),
		Mode:       req.Mode,
		News:       req.News,
	})
	pageResult := search.Paginate(all, page, perPage)

	research := &Research{
		ID:        uuid.NewString(),
		Query:     req.Query,
		Timestamp: time.Now().UTC(),
		Results:   pageResult.Records,
		Sources:   []scraper.Source{},
		Page:      pageResult.Page,
		PerPage:   pageResult.PerPage,
		HasMore:   pageResult.HasMore,
	}

	if len(pageResult.Records) == 0 {
		research.Err = "No search results found"
		a.record(research)
		return research
	}

	if depth == DepthStandard || depth == DepthDeep {
		a.scrapeSources(ctx, research, progress)
	}

	if depth == DepthDeep && a.analyzer != nil {
		progress("Analyzing sources...")
		analysis, err := a.analyzer.Summarize(ctx, req.Query, research.Sources)
		if err != nil {
			// Analysis failing degrades the research, it does not fail it.
			a.logger.Warn("agent: analysis unavailable", zap.Error(err))
			analysis = fmt.Sprintf("AI analysis unavailable: %v", err)
		}
		research.Analysis = analysis
	}

	a.record(research)
	return research
}

func (a *Agent) scrapeSources(ctx context.Context, research *Research, progress func(string)) {
	filter, err := relevance.NewQueryFilter(research.Query)
	if err != nil {
		filter = nil
	}

	progress(fmt.Sprintf("Scraping %d sources...", len(research.Results)))
	for i, result := range research.Results {
		progress(fmt.Sprintf("Scraping [%d/%d] %s", i+1, len(research.Results), result.URL))

		src, err := a.scraper.ScrapeURL(ctx, result.URL)
		if err != nil {
			a.logger.Debug("agent: failed to scrape source",
				zap.String("url", result.URL),
				zap.Error(err))
			continue
		}

		if filter != nil {
			if score, ok := filter.Score(src.Text); !ok {
				a.logger.Debug("agent: dropping off-topic source",
					zap.String("url", result.URL),
					zap.Float32("score", score))
				continue
			}
		}
		research.Sources = append(research.Sources, *src)
	}

	a.logger.Info("agent: scraping completed",
		zap.String("query", research.Query),
		zap.Int("scraped", len(research.Sources)),
		zap.Int("results", len(research.Results)))
}

func (a *Agent) record(research *Research) {
	if a.history == nil {
		return
	}
	if err := a.history.Append(research); err != nil {
		a.logger.Error("agent: failed to record research", zap.Error(err))
	}
}
