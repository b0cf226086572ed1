package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewise/pkg/pagewise"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about a page",
	Long: `Fetch a page and print the model's answer to a question about it.

Examples:
  pagewise ask -u https://books.toscrape.com -q "What categories exist?"
  pagewise ask -u https://example.com -q "Summarize the pricing" --topic pricing
  pagewise ask -u https://example.com -q "What is this?" -p ollama -m llama3.2`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	flags := askCmd.Flags()
	flags.StringP("url", "u", "", "URL of the page (required)")
	flags.StringP("question", "q", "", "question to ask (required)")
	flags.String("topic", "", "narrow the page to text mentioning this topic")

	_ = askCmd.MarkFlagRequired("url")
	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	url, _ := flags.GetString("url")
	question, _ := flags.GetString("question")
	topic, _ := flags.GetString("topic")

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(true)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ans, err := client.Ask(ctx, pagewise.Request{URL: url, Question: question, Topic: topic})
	if err != nil {
		return fmt.Errorf("could not answer: %w", err)
	}
	logInfo("Fetched %s with the %s strategy; answered by %s in %s",
		ans.Page.Record.URL, ans.Page.Strategy, ans.Provider, ans.Duration.Round(time.Millisecond))

	_, err = fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
	return err
}
