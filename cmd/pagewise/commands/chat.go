package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/pagewise"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about pages interactively",
	Long: `Start an interactive session. Enter a URL to fetch, then ask as many
questions about that page as you like. Type 'new' to switch pages and
'exit' to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("topic", "", "narrow every page to text mentioning this topic")
}

// pageAsker is the part of *pagewise.Client the chat loop uses.
type pageAsker interface {
	Fetch(ctx context.Context, req pagewise.FetchRequest) (*pagewise.Page, error)
	AskPage(ctx context.Context, rec page.Record, question string) *pagewise.Answer
}

func runChat(cmd *cobra.Command, _ []string) error {
	topic, _ := cmd.Flags().GetString("topic")

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(true)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return chat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), client, topic)
}

// chat runs the interactive loop until 'exit', end of input or ctx is done.
// Fetch failures are reported and the loop asks for another URL.
func chat(ctx context.Context, in io.Reader, out io.Writer, client pageAsker, topic string) error {
	scanner := bufio.NewScanner(in)
	readLine := func(msg string) (string, bool) {
		fmt.Fprint(out, msg)
		if ctx.Err() != nil || !scanner.Scan() {
			fmt.Fprintln(out)
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	fmt.Fprintln(out, "Welcome to pagewise!")
	for {
		url, ok := readLine("\nEnter a URL to fetch (or 'exit' to quit): ")
		if !ok || strings.EqualFold(url, "exit") {
			return scanner.Err()
		}
		if url == "" {
			continue
		}

		p, err := client.Fetch(ctx, pagewise.FetchRequest{URL: url, Topic: topic})
		if err != nil {
			fmt.Fprintf(out, "Could not fetch %s: %v\n", url, err)
			continue
		}
		printSummary(out, p)

		for {
			question, ok := readLine("\nAsk about this page (or 'new' for a new page, 'exit' to quit): ")
			if !ok || strings.EqualFold(question, "exit") {
				return scanner.Err()
			}
			if strings.EqualFold(question, "new") {
				break
			}
			if question == "" {
				continue
			}

			ans := client.AskPage(ctx, p.Record, question)
			fmt.Fprintf(out, "\nAnswer:\n%s\n", ans.Text)
		}
	}
}

func printSummary(out io.Writer, p *pagewise.Page) {
	headings := p.Record.Headings
	more := ""
	if len(headings) > 10 {
		headings, more = headings[:10], " ..."
	}
	fmt.Fprintf(out, "\nPage fetched with the %s strategy: %s\n", p.Strategy, p.Record.Title)
	fmt.Fprintf(out, "Headings found: %s%s\n", strings.Join(headings, " | "), more)
	fmt.Fprintf(out, "Total links found: %d\n", len(p.Record.Links))
}
