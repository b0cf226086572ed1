// Package cleaner extracts the main article text from a page, dropping
// navigation, footers and other boilerplate.
//
// Cleaners are optional in pagewise: extraction works from headings and
// paragraphs alone, and a cleaner only adds an article body for pages whose
// text is not held in <p> elements.
package cleaner

import (
	"errors"
	"fmt"
	"strings"
)

// Cleaner turns page HTML into plain article text.
type Cleaner interface {
	// Clean returns the main text of htmlContent. pageURL resolves relative
	// references and may be empty.
	Clean(htmlContent, pageURL string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Cleaner names accepted by New.
const (
	NameNone        = "none"
	NameReadability = "readability"
	NameTrafilatura = "trafilatura"
	NameMarkdown    = "markdown"
)

var (
	// ErrNoArticle is returned when a cleaner finds no main content.
	ErrNoArticle = errors.New("no article content found")
	// ErrUnknownCleaner is returned by New for unsupported names.
	ErrUnknownCleaner = errors.New("unknown cleaner")
)

// New returns the named cleaner. "none" and "" return nil.
func New(name string) (Cleaner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return nil, nil
	case NameReadability:
		return NewReadability(nil), nil
	case NameTrafilatura:
		return NewTrafilatura(nil), nil
	case NameMarkdown:
		return NewMarkdown(), nil
	case "auto":
		return NewChain(NewTrafilatura(nil), NewReadability(nil)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCleaner, name)
	}
}

// collapseLines trims every line and drops blank ones.
func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
