package page

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/jmylchreest/pagewise/internal/logger"
)

// Extraction defaults.
const (
	DefaultMinParagraphLength = 20
	DefaultTopicFallbackLimit = 10
)

const (
	removedSelector  = "script, style, noscript"
	headingSelector  = "h1, h2, h3, h4, h5, h6"
	topicSelector    = "p, span, li, h1, h2, h3, h4, h5, h6, div"
	linkSelector     = "a[href]"
	paragraphElement = "p"
)

// ArticleCleaner produces main article text from HTML. It is satisfied by
// the cleaners in pkg/cleaner.
type ArticleCleaner interface {
	Clean(htmlContent, pageURL string) (string, error)
	Name() string
}

type config struct {
	topic              string
	minParagraphLength int
	topicFallbackLimit int
	article            ArticleCleaner
}

// Option configures Extract.
type Option func(*config)

// WithTopic narrows paragraphs to text mentioning topic (case-insensitive).
// A blank topic is ignored.
func WithTopic(topic string) Option {
	return func(c *config) {
		c.topic = strings.TrimSpace(topic)
	}
}

// WithMinParagraphLength drops paragraphs shorter than n characters.
func WithMinParagraphLength(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphLength = n
		}
	}
}

// WithTopicFallbackLimit sets how many leading paragraphs are kept when a
// topic matches nothing.
func WithTopicFallbackLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.topicFallbackLimit = n
		}
	}
}

// WithArticleCleaner fills Record.Article using cl. Cleaner failures leave
// Article empty.
func WithArticleCleaner(cl ArticleCleaner) Option {
	return func(c *config) {
		c.article = cl
	}
}

// Extract builds a Record from html. It never fails: malformed markup is
// parsed best-effort and missing elements yield empty slices. pageURL is the
// base for resolving links and should already be normalised.
func Extract(html, pageURL string, opts ...Option) Record {
	cfg := config{
		minParagraphLength: DefaultMinParagraphLength,
		topicFallbackLimit: DefaultTopicFallbackLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rec := Record{
		URL:        pageURL,
		Title:      NoTitle,
		Headings:   []string{},
		Paragraphs: []string{},
		Links:      []Link{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The html5 parser only fails on reader errors, which a
		// strings.Reader never returns.
		logger.Debug("html parse failed", "url", pageURL, "error", err)
		return rec
	}

	if title := cleanText(doc.Find("title").First().Text()); title != "" {
		rec.Title = title
	}

	doc.Find(removedSelector).Remove()

	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			rec.Headings = append(rec.Headings, text)
		}
	})

	doc.Find(paragraphElement).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text != "" && utf8.RuneCountInString(text) >= cfg.minParagraphLength {
			rec.Paragraphs = append(rec.Paragraphs, text)
		}
	})

	rec.Links = extractLinks(doc, pageURL)

	if cfg.topic != "" {
		rec = applyTopic(rec, doc, cfg)
	}

	if cfg.article != nil {
		text, err := cfg.article.Clean(html, pageURL)
		if err != nil {
			logger.Debug("article cleaner found nothing", "cleaner", cfg.article.Name(), "url", pageURL, "error", err)
		} else {
			rec.Article = text
		}
	}

	logger.Debug("page extracted",
		"url", pageURL,
		"headings", len(rec.Headings),
		"paragraphs", len(rec.Paragraphs),
		"links", len(rec.Links),
		"topic", rec.Topic,
		"topic_fallback", rec.TopicFallback)
	return rec
}

func extractLinks(doc *goquery.Document, pageURL string) []Link {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	links := []Link{}
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}
		if u, err := url.Parse(resolved); err != nil || !u.IsAbs() {
			return
		}
		text := cleanText(s.Text())
		if text == "" {
			text = NoLinkText
		}
		links = append(links, Link{Text: text, URL: resolved})
	})
	return links
}

// applyTopic returns rec with Paragraphs replaced by the text of every
// candidate element mentioning the topic. Identical texts are kept once.
// When nothing matches, the first paragraphs are kept and TopicFallback is
// set.
func applyTopic(rec Record, doc *goquery.Document, cfg config) Record {
	needle := strings.ToLower(cfg.topic)
	seen := make(map[uint64]struct{})
	matches := []string{}

	doc.Find(topicSelector).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" || !strings.Contains(strings.ToLower(text), needle) {
			return
		}
		h := xxhash.Sum64String(text)
		if _, dup := seen[h]; dup {
			return
		}
		seen[h] = struct{}{}
		matches = append(matches, text)
	})

	rec.Topic = cfg.topic
	if len(matches) > 0 {
		rec.Paragraphs = matches
		return rec
	}

	rec.TopicFallback = true
	if len(rec.Paragraphs) > cfg.topicFallbackLimit {
		rec.Paragraphs = rec.Paragraphs[:cfg.topicFallbackLimit:cfg.topicFallbackLimit]
	}
	return rec
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
