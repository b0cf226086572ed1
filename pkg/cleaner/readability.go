package cleaner

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

// ReadabilityConfig configures the Readability cleaner.
type ReadabilityConfig struct {
	// MaxElemsToParse limits the number of nodes to parse (0 = no limit).
	MaxElemsToParse int
	// NTopCandidates is the number of top candidates to consider (default: 5).
	NTopCandidates int
	// CharThreshold is the minimum character count for valid content (default: 500).
	CharThreshold int
}

// ReadabilityCleaner extracts main content using go-readability, a port of
// Mozilla's Readability.js.
type ReadabilityCleaner struct {
	parser readability.Parser
}

var _ Cleaner = (*ReadabilityCleaner)(nil)

// NewReadability creates a new Readability cleaner.
// Pass nil for default configuration.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityCleaner {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.MaxElemsToParse > 0 {
		parser.MaxElemsToParse = cfg.MaxElemsToParse
	}
	if cfg.NTopCandidates > 0 {
		parser.NTopCandidates = cfg.NTopCandidates
	}
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}

	return &ReadabilityCleaner{parser: parser}
}

// Clean returns the article text, or ErrNoArticle when Readability finds no
// main content.
func (c *ReadabilityCleaner) Clean(htmlContent, pageURL string) (string, error) {
	var baseURL *url.URL
	if pageURL != "" {
		// An unparseable base only disables link resolution.
		baseURL, _ = url.Parse(pageURL)
	}

	article, err := c.parser.Parse(strings.NewReader(htmlContent), baseURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	if article.Node == nil {
		return "", ErrNoArticle
	}

	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return "", fmt.Errorf("readability: render text: %w", err)
	}

	text := collapseLines(buf.String())
	if text == "" {
		return "", ErrNoArticle
	}
	return text, nil
}

// Name returns the cleaner type.
func (c *ReadabilityCleaner) Name() string {
	return NameReadability
}
