package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownCleaner converts the whole page to Markdown. It keeps structure
// (headings, lists, tables) rather than isolating an article, so it suits
// listing and index pages that Readability-style cleaners reject.
type MarkdownCleaner struct {
	conv *converter.Converter
}

var _ Cleaner = (*MarkdownCleaner)(nil)

// NewMarkdown creates a new Markdown cleaner.
func NewMarkdown() *MarkdownCleaner {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &MarkdownCleaner{conv: conv}
}

// Clean converts htmlContent to Markdown. Relative links are resolved
// against pageURL when it is set.
func (c *MarkdownCleaner) Clean(htmlContent, pageURL string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", ErrNoArticle
	}

	var (
		markdown string
		err      error
	)
	if pageURL != "" {
		markdown, err = c.conv.ConvertString(htmlContent, converter.WithDomain(pageURL))
	} else {
		markdown, err = c.conv.ConvertString(htmlContent)
	}
	if err != nil {
		return "", err
	}

	markdown = cleanWhitespace(markdown)
	if markdown == "" {
		return "", ErrNoArticle
	}
	return markdown, nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return NameMarkdown
}

// cleanWhitespace collapses runs of blank lines into one.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := lines[:0]
	blank := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank <= 1 {
				result = append(result, "")
			}
			continue
		}
		blank = 0
		result = append(result, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
