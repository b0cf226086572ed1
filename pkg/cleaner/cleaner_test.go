package cleaner

import (
	"errors"
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Brewing Guide</title></head>
<body>
  <nav><a href="/">Home</a> | <a href="/shop">Shop</a></nav>
  <article>
    <h1>How to brew pour-over coffee</h1>
    <div>Start with freshly roasted beans and grind them to the texture of coarse sand just before brewing.
    A burr grinder gives a far more even particle size than a blade grinder, which keeps extraction balanced.</div>
    <div>Heat the water to roughly ninety-three degrees and rinse the paper filter to remove any papery taste.
    Bloom the grounds with twice their weight in water and wait thirty seconds for the gas to escape.</div>
    <div>Pour the remaining water slowly in concentric circles, keeping the bed level, and aim for a total
    brew time of around three minutes. Adjust the grind finer or coarser on the next cup to taste.</div>
  </article>
  <footer>Copyright 2024 Example Coffee Co.</footer>
</body>
</html>`

// stubCleaner returns a fixed result.
type stubCleaner struct {
	name string
	text string
	err  error
}

func (c *stubCleaner) Clean(_, _ string) (string, error) { return c.text, c.err }
func (c *stubCleaner) Name() string                      { return c.name }

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantNil  bool
		wantErr  error
	}{
		{"empty", "", "", true, nil},
		{"none", "none", "", true, nil},
		{"readability", "Readability", NameReadability, false, nil},
		{"trafilatura", " trafilatura ", NameTrafilatura, false, nil},
		{"auto", "auto", "chain(trafilatura->readability)", false, nil},
		{"markdown", "markdown", NameMarkdown, false, nil},
		{"unknown", "boilerpipe", "", true, ErrUnknownCleaner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if tt.wantNil {
				if c != nil {
					t.Errorf("New(%q) = %v, want nil", tt.input, c)
				}
				return
			}
			if c.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}
}

func TestChainCleaner_FirstSuccessWins(t *testing.T) {
	c := NewChain(
		&stubCleaner{name: "a", err: ErrNoArticle},
		&stubCleaner{name: "b", text: "from b"},
		&stubCleaner{name: "c", text: "from c"},
	)

	got, err := c.Clean("<p>x</p>", "")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != "from b" {
		t.Errorf("Clean() = %q, want %q", got, "from b")
	}
}

func TestChainCleaner_AllFail(t *testing.T) {
	c := NewChain(
		&stubCleaner{name: "a", err: ErrNoArticle},
		&stubCleaner{name: "b", err: errors.New("parse failure")},
	)

	_, err := c.Clean("<p>x</p>", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNoArticle) {
		t.Errorf("expected ErrNoArticle in %v", err)
	}
	if !strings.Contains(err.Error(), "b: parse failure") {
		t.Errorf("expected cleaner name in error, got %v", err)
	}
}

func TestChainCleaner_Empty(t *testing.T) {
	if _, err := NewChain().Clean("<p>x</p>", ""); !errors.Is(err, ErrNoArticle) {
		t.Errorf("Clean() error = %v, want ErrNoArticle", err)
	}
}

func TestChainCleaner_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"single", []Cleaner{NewReadability(nil)}, "chain(readability)"},
		{"double", []Cleaner{NewTrafilatura(nil), NewReadability(nil)}, "chain(trafilatura->readability)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewChain(tt.cleaners...).Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadabilityCleaner_Article(t *testing.T) {
	c := NewReadability(&ReadabilityConfig{CharThreshold: 100})

	got, err := c.Clean(articleHTML, "https://coffee.example/guide")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(got, "burr grinder") {
		t.Errorf("expected article body, got %q", got)
	}
	if strings.Contains(got, "<div>") {
		t.Errorf("expected plain text, got %q", got)
	}
}

func TestTrafilaturaCleaner_Article(t *testing.T) {
	c := NewTrafilatura(nil)

	got, err := c.Clean(articleHTML, "https://coffee.example/guide")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(got, "concentric circles") {
		t.Errorf("expected article body, got %q", got)
	}
}

func TestCollapseLines(t *testing.T) {
	got := collapseLines("  first   line \n\n\t\n second\tline  \n")
	want := "first line\nsecond line"
	if got != want {
		t.Errorf("collapseLines() = %q, want %q", got, want)
	}
}

func TestMarkdownCleaner(t *testing.T) {
	c := NewMarkdown()

	got, err := c.Clean(`<h1>Catalogue</h1><ul><li>Travel</li><li>Mystery</li></ul><p><a href="/books">All books</a></p>`, "https://books.example")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, want := range []string{"# Catalogue", "Travel", "Mystery", "[All books](https://books.example/books)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("expected collapsed blank lines, got %q", got)
	}
}

func TestMarkdownCleaner_Empty(t *testing.T) {
	if _, err := NewMarkdown().Clean("   ", ""); !errors.Is(err, ErrNoArticle) {
		t.Errorf("Clean() error = %v, want %v", err, ErrNoArticle)
	}
}

func TestCleanWhitespace(t *testing.T) {
	got := cleanWhitespace("\n# Title  \n\n\n\nBody\n\n")
	want := "# Title\n\nBody"
	if got != want {
		t.Errorf("cleanWhitespace() = %q, want %q", got, want)
	}
}
