package cleaner

import (
	"errors"
	"fmt"
	"strings"
)

// ChainCleaner tries cleaners in order and returns the first article found.
type ChainCleaner struct {
	cleaners []Cleaner
}

var _ Cleaner = (*ChainCleaner)(nil)

// NewChain creates a cleaner that falls through cleaners in order.
//
// Example:
//
//	c := cleaner.NewChain(
//	    cleaner.NewTrafilatura(nil),
//	    cleaner.NewReadability(nil),
//	)
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	return &ChainCleaner{cleaners: cleaners}
}

// Clean returns the first successful cleaner's text. When all fail the
// errors are joined; ErrNoArticle stays detectable with errors.Is.
func (c *ChainCleaner) Clean(htmlContent, pageURL string) (string, error) {
	if len(c.cleaners) == 0 {
		return "", ErrNoArticle
	}

	var errs []error
	for _, cl := range c.cleaners {
		text, err := cl.Clean(htmlContent, pageURL)
		if err == nil {
			return text, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", cl.Name(), err))
	}
	return "", errors.Join(errs...)
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cl := range c.cleaners {
		names[i] = cl.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
