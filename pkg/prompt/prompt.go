// Package prompt bounds a page.Record to a size budget and wraps it in the
// instructions sent to a language model.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/jmylchreest/pagewise/internal/logger"
	"github.com/jmylchreest/pagewise/pkg/page"
)

// TruncationMarker is appended whenever content is cut to fit MaxChars.
const TruncationMarker = "\n\n[Content truncated due to length...]"

// SystemPrompt is the system instruction sent alongside Build's output.
const SystemPrompt = `You are an AI web analysis agent. You answer questions about a single web page using only the page content you are given. Be clear and concise.`

// Budget bounds the page content placed in a prompt. Zero means no limit.
type Budget struct {
	MaxItems int `validate:"gte=0"` // Headings and paragraphs kept, in that order
	MaxChars int `validate:"gte=0"` // Characters of joined content kept
	MaxLinks int `validate:"gte=0"` // Links listed as examples
}

// DefaultBudget returns the default prompt budget.
func DefaultBudget() Budget {
	return Budget{
		MaxItems: 40,
		MaxChars: 3000,
		MaxLinks: 15,
	}
}

// BuildContext joins the record's headings and then its paragraphs, one per
// line, keeping at most maxItems distinct entries and at most maxChars
// characters. When the character bound cuts the text, TruncationMarker is
// appended, so the result is then exactly maxChars characters plus the
// marker. Records without paragraphs contribute their article text instead.
func BuildContext(rec page.Record, maxItems, maxChars int) string {
	items := make([]string, 0, len(rec.Headings)+len(rec.Paragraphs))
	items = append(items, rec.Headings...)
	if len(rec.Paragraphs) > 0 {
		items = append(items, rec.Paragraphs...)
	} else if rec.Article != "" {
		items = append(items, strings.Split(rec.Article, "\n")...)
	}

	items = dedupe(items)
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	return truncate(strings.Join(items, "\n"), maxChars)
}

// truncate cuts s to maxChars characters and appends TruncationMarker.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= maxChars {
		return s
	}

	cut := 0
	for i := range s {
		if cut == maxChars {
			logger.Debug("prompt content truncated", "chars", n, "max_chars", maxChars)
			return s[:i] + TruncationMarker
		}
		cut++
	}
	return s
}

func dedupe(items []string) []string {
	seen := make(map[uint64]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		h := xxhash.Sum64String(item)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Build assembles the full question prompt for rec.
func Build(rec page.Record, question string, b Budget) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an AI web analysis agent. You have scraped the webpage: %s\n\n", rec.URL)
	fmt.Fprintf(&sb, "Page title: %s\n", rec.Title)
	if rec.Topic != "" {
		if rec.TopicFallback {
			fmt.Fprintf(&sb, "Topic filter: %s (no matching text was found, showing the start of the page instead)\n", rec.Topic)
		} else {
			fmt.Fprintf(&sb, "Topic filter: %s\n", rec.Topic)
		}
	}

	sb.WriteString("\nPage Content Summary:\n")
	if content := BuildContext(rec, b.MaxItems, b.MaxChars); content != "" {
		sb.WriteString(content)
	} else {
		sb.WriteString("(no text content was found on the page)")
	}
	sb.WriteString("\n")

	if len(rec.Links) > 0 {
		links := rec.Links
		if b.MaxLinks > 0 && len(links) > b.MaxLinks {
			links = links[:b.MaxLinks]
		}
		sb.WriteString("\nExample Links:\n")
		for _, l := range links {
			fmt.Fprintf(&sb, "- %s: %s\n", l.Text, l.URL)
		}
		if more := len(rec.Links) - len(links); more > 0 {
			fmt.Fprintf(&sb, "(and %d more exist on the page)\n", more)
		}
	}

	sb.WriteString(`
Your tasks:
- Answer the user's question clearly and concisely.
- If the question is about categories, identify them from headings or links.
- If the question is about products (like books), try to extract relevant ones.
- If the question is about summarizing, provide a short summary.
- If information is missing, say so politely instead of guessing.
`)
	fmt.Fprintf(&sb, "\nUser's Question: %s\n", strings.TrimSpace(question))

	return sb.String()
}
