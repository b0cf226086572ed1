package cleaner

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
)

// Toggle specifies include/exclude behavior.
type Toggle int

const (
	// Default uses the default behavior for the field.
	Default Toggle = iota
	// Include explicitly includes the content.
	Include
	// Exclude explicitly excludes the content.
	Exclude
)

// TrafilaturaConfig configures the Trafilatura cleaner.
type TrafilaturaConfig struct {
	// Comments: Include or Exclude (default: Exclude)
	Comments Toggle
	// Tables: Include or Exclude (default: Include)
	Tables Toggle
	// Fallback to Readability/DomDistiller: Include or Exclude (default: Include)
	Fallback Toggle
}

// TrafilaturaCleaner extracts main content using go-trafilatura.
type TrafilaturaCleaner struct {
	opts trafilatura.Options
}

var _ Cleaner = (*TrafilaturaCleaner)(nil)

// NewTrafilatura creates a new Trafilatura cleaner.
// Pass nil for default configuration.
func NewTrafilatura(cfg *TrafilaturaConfig) *TrafilaturaCleaner {
	if cfg == nil {
		cfg = &TrafilaturaConfig{}
	}

	return &TrafilaturaCleaner{
		opts: trafilatura.Options{
			ExcludeComments: cfg.Comments != Include,
			ExcludeTables:   cfg.Tables == Exclude,
			EnableFallback:  cfg.Fallback != Exclude,
		},
	}
}

// Clean returns the article text, or ErrNoArticle when nothing was found.
func (c *TrafilaturaCleaner) Clean(htmlContent, pageURL string) (string, error) {
	opts := c.opts
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			opts.OriginalURL = u
		}
	}

	result, err := trafilatura.Extract(strings.NewReader(htmlContent), opts)
	if err != nil {
		return "", fmt.Errorf("trafilatura: %w", err)
	}
	if result == nil {
		return "", ErrNoArticle
	}

	text := collapseLines(result.ContentText)
	if text == "" {
		return "", ErrNoArticle
	}
	return text, nil
}

// Name returns the cleaner type.
func (c *TrafilaturaCleaner) Name() string {
	return NameTrafilatura
}
