package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"scour/scraper"
)

const (
	// Per-source excerpt length in the prompt context.
	sourceExcerptChars = 800
	// Upper bound on the assembled context before the prompt template is
	// applied; overlong contexts are split and only the head is kept.
	maxContextChars = 8000
)

// Analyzer produces a research summary from scraped sources with a local
// language model.
type Analyzer struct {
	llm    llms.Model
	logger *zap.Logger
}

// NewAnalyzer wraps an existing model, which tests inject directly.
func NewAnalyzer(llm llms.Model, logger *zap.Logger) *Analyzer {
	return &Analyzer{llm: llm, logger: logger}
}

// NewOllamaAnalyzer connects to a local Ollama server.
func NewOllamaAnalyzer(serverURL, model string, logger *zap.Logger) (*Analyzer, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewAnalyzer(llm, logger), nil
}

// Summarize builds a context from the scraped sources and asks the model
// for a synthesis. The model being unreachable is an error; the caller
// decides whether that degrades or fails the research.
func (a *Analyzer) Summarize(ctx context.Context, query string, sources []scraper.Source) (string, error) {
	if len(sources) == 0 {
		return "", fmt.Errorf("no sources to analyze")
	}

	promptContext, err := a.buildContext(query, sources)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`%s

Based on the above sources, provide a comprehensive research summary that:
1. Synthesizes key findings
2. Identifies common themes
3. Highlights important insights
4. Remains factual and objective

Summary:`, promptContext)

	completion, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	a.logger.Info("analysis: summary generated",
		zap.String("query", query),
		zap.Int("sources", len(sources)),
		zap.Int("summary_length", len(completion)))
	return strings.TrimSpace(completion), nil
}

// truncateExcerpt cuts text at limit bytes, backing off to a rune boundary
// so a multi-byte character is never split.
func truncateExcerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}

func (a *Analyzer) buildContext(query string, sources []scraper.Source) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Research Query: %s\n\nSources:\n", query)
	for i, source := range sources {
		text := source.Markdown
		if text == "" {
			text = source.Text
		}
		if len(text) > sourceExcerptChars {
			text = truncateExcerpt(text, sourceExcerptChars) + "..."
		}
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", i+1, source.Title, text)
	}

	assembled := b.String()
	if len(assembled) <= maxContextChars {
		return assembled, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxContextChars),
		textsplitter.WithChunkOverlap(0),
	)
	chunks, err := splitter.SplitText(assembled)
	if err != nil {
		return "", fmt.Errorf("failed to split context: %w", err)
	}
	if len(chunks) == 0 {
		return assembled, nil
	}
	return chunks[0], nil
}
