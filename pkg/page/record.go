// Package page turns raw HTML into a Record: the title, headings,
// paragraphs and links of a single page, optionally narrowed to a topic.
package page

import "slices"

// Placeholders used when the document has no usable text.
const (
	NoTitle    = "No title"
	NoLinkText = "No text"
)

// Record is the structured content of one page. Records are values:
// extraction returns a fresh Record and nothing modifies one afterwards.
type Record struct {
	URL        string   `json:"url" yaml:"url"`
	Title      string   `json:"title" yaml:"title"`
	Headings   []string `json:"headings" yaml:"headings"`
	Paragraphs []string `json:"paragraphs" yaml:"paragraphs"`
	Links      []Link   `json:"links" yaml:"links"`

	// Topic is set when the record was narrowed to a topic. Paragraphs then
	// holds the matching text, or the first paragraphs of the page when
	// TopicFallback is true.
	Topic         string `json:"topic,omitempty" yaml:"topic,omitempty"`
	TopicFallback bool   `json:"topic_fallback,omitempty" yaml:"topic_fallback,omitempty"`

	// Article is the main text found by an article cleaner, if one ran.
	Article string `json:"article,omitempty" yaml:"article,omitempty"`
}

// Link is an anchor with its URL resolved against the page URL.
type Link struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// TableHeader names the columns returned by Table.
var TableHeader = []string{"heading", "paragraph", "link_text", "link_url"}

// Columns returns a copy of TableHeader.
func (Record) Columns() []string {
	return slices.Clone(TableHeader)
}

// Table lays the record out in columns: row i holds the i-th heading,
// paragraph and link. Shorter columns are padded with empty strings.
func (r Record) Table() [][]string {
	n := max(len(r.Headings), len(r.Paragraphs), len(r.Links))
	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(TableHeader))
		if i < len(r.Headings) {
			row[0] = r.Headings[i]
		}
		if i < len(r.Paragraphs) {
			row[1] = r.Paragraphs[i]
		}
		if i < len(r.Links) {
			row[2] = r.Links[i].Text
			row[3] = r.Links[i].URL
		}
		rows[i] = row
	}
	return rows
}
