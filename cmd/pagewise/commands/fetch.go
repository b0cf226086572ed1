package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewise/internal/output"
	"github.com/jmylchreest/pagewise/pkg/pagewise"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a page and print its extracted content",
	Long: `Fetch a page with the first working strategy and print its title,
headings, paragraphs and links.

Examples:
  pagewise fetch -u books.toscrape.com
  pagewise fetch -u https://example.com --topic pricing --format yaml
  pagewise fetch -u https://example.com --format csv -o page.csv`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.StringP("url", "u", "", "URL to fetch (required)")
	flags.String("topic", "", "keep only text mentioning this topic")
	flags.String("format", "json", "output format: json, jsonl, yaml, csv")
	flags.StringP("output", "o", "", "output file (default: stdout)")

	_ = fetchCmd.MarkFlagRequired("url")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	url, _ := flags.GetString("url")
	topic, _ := flags.GetString("topic")
	formatName, _ := flags.GetString("format")
	outPath, _ := flags.GetString("output")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(false)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	p, err := client.Fetch(ctx, pagewise.FetchRequest{URL: url, Topic: topic})
	if err != nil {
		return fmt.Errorf("could not fetch %s: %w", url, err)
	}
	logInfo("Fetched %s with the %s strategy in %s (%d headings, %d paragraphs, %d links)",
		p.Record.URL, p.Strategy, p.FetchDuration.Round(time.Millisecond),
		len(p.Record.Headings), len(p.Record.Paragraphs), len(p.Record.Links))
	if p.Record.TopicFallback {
		logInfo("Nothing mentions %q; showing the first paragraphs instead", p.Record.Topic)
	}

	var dst io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		dst = f
	}

	w, err := output.NewWriter(dst, format)
	if err != nil {
		return err
	}
	if err := w.Write(p.Record); err != nil {
		return err
	}
	return w.Close()
}
