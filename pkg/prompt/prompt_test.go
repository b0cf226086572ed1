package prompt

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longRecord(paragraphs int) page.Record {
	rec := page.Record{
		URL:      "https://example.com",
		Title:    "Example",
		Headings: []string{"Welcome", "Details"},
	}
	for i := range paragraphs {
		rec.Paragraphs = append(rec.Paragraphs, fmt.Sprintf("Paragraph %03d has a reasonable amount of filler text in it.", i))
	}
	return rec
}

func TestBuildContext_HeadingsThenParagraphs(t *testing.T) {
	t.Parallel()

	rec := page.Record{
		Headings:   []string{"H1", "H2"},
		Paragraphs: []string{"P1 text", "P2 text"},
	}

	assert.Equal(t, "H1\nH2\nP1 text\nP2 text", BuildContext(rec, 0, 0))
}

func TestBuildContext_ExactLengthWhenTruncated(t *testing.T) {
	t.Parallel()

	for _, maxChars := range []int{1, 10, 100, 2000, 3000} {
		t.Run(fmt.Sprint(maxChars), func(t *testing.T) {
			t.Parallel()
			out := BuildContext(longRecord(200), 0, maxChars)
			assert.Equal(t, maxChars+len(TruncationMarker), utf8.RuneCountInString(out))
			assert.True(t, strings.HasSuffix(out, TruncationMarker))
		})
	}
}

func TestBuildContext_CountsCharacters(t *testing.T) {
	t.Parallel()

	rec := page.Record{Paragraphs: []string{strings.Repeat("日本語", 10)}}

	out := BuildContext(rec, 0, 7)

	assert.Equal(t, "日本語日本語日"+TruncationMarker, out)
	assert.True(t, utf8.ValidString(out))
}

func TestBuildContext_NoMarkerWhenWithinBudget(t *testing.T) {
	t.Parallel()

	rec := page.Record{Headings: []string{"Short"}}

	assert.Equal(t, "Short", BuildContext(rec, 10, 5))
	assert.Equal(t, "Short", BuildContext(rec, 10, 100))
}

func TestBuildContext_MaxItems(t *testing.T) {
	t.Parallel()

	out := BuildContext(longRecord(20), 5, 0)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Welcome", lines[0])
	assert.Equal(t, "Details", lines[1])
	assert.True(t, strings.HasPrefix(lines[4], "Paragraph 002"))
}

func TestBuildContext_Deduplicates(t *testing.T) {
	t.Parallel()

	rec := page.Record{
		Headings:   []string{"Books", "Books"},
		Paragraphs: []string{"Books", "Travel", "", "Travel"},
	}

	assert.Equal(t, "Books\nTravel", BuildContext(rec, 0, 0))
}

func TestBuildContext_ArticleFallback(t *testing.T) {
	t.Parallel()

	rec := page.Record{
		Headings: []string{"Title"},
		Article:  "First article line\nSecond article line",
	}
	assert.Equal(t, "Title\nFirst article line\nSecond article line", BuildContext(rec, 0, 0))

	rec.Paragraphs = []string{"A real paragraph"}
	assert.Equal(t, "Title\nA real paragraph", BuildContext(rec, 0, 0), "paragraphs take precedence over the article")
}

func TestBuildContext_DoesNotModifyRecord(t *testing.T) {
	t.Parallel()

	rec := page.Record{
		Headings:   []string{"A", "A"},
		Paragraphs: []string{"B", "B"},
	}
	_ = BuildContext(rec, 1, 1)

	assert.Equal(t, []string{"A", "A"}, rec.Headings)
	assert.Equal(t, []string{"B", "B"}, rec.Paragraphs)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	rec := longRecord(2)
	for i := range 20 {
		rec.Links = append(rec.Links, page.Link{Text: fmt.Sprintf("Link %d", i), URL: fmt.Sprintf("https://example.com/%d", i)})
	}

	out := Build(rec, "  What is this page about? ", DefaultBudget())

	assert.Contains(t, out, "You have scraped the webpage: https://example.com")
	assert.Contains(t, out, "Page title: Example")
	assert.Contains(t, out, "Page Content Summary:\nWelcome\nDetails\nParagraph 000")
	assert.Contains(t, out, "- Link 14: https://example.com/14")
	assert.NotContains(t, out, "- Link 15:")
	assert.Contains(t, out, "(and 5 more exist on the page)")
	assert.Contains(t, out, "If information is missing, say so politely instead of guessing.")
	assert.True(t, strings.HasSuffix(out, "User's Question: What is this page about?\n"))
	assert.NotContains(t, out, "Topic filter")
}

func TestBuild_TopicAndEmptyPage(t *testing.T) {
	t.Parallel()

	rec := page.Record{URL: "https://example.com", Title: page.NoTitle, Topic: "zebra", TopicFallback: true}

	out := Build(rec, "Any zebras?", DefaultBudget())

	assert.Contains(t, out, "Topic filter: zebra (no matching text was found")
	assert.Contains(t, out, "(no text content was found on the page)")
	assert.NotContains(t, out, "Example Links")
}
