// Package commands implements the CLI commands for pagewise.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/pagewise/internal/logger"
	"github.com/jmylchreest/pagewise/pkg/prompt"
)

var rootCmd = &cobra.Command{
	Use:   "pagewise",
	Short: "Ask a language model questions about a web page",
	Long: `Pagewise fetches a web page, extracts its title, headings, paragraphs
and links, and answers questions about it with a language model.

Pages are fetched with the first strategy that works: a headless Chrome
render, a rod-driven browser, a remote rendering service, and finally a
plain HTTP request.

Examples:
  # Print the extracted page as JSON
  pagewise fetch -u books.toscrape.com

  # Ask a single question
  pagewise ask -u https://books.toscrape.com -q "What categories exist?"

  # Chat about pages interactively
  pagewise chat

  # Serve the HTTP API
  pagewise serve --addr :8080`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initLogging,
}

func init() {
	cobra.OnInitialize(initConfig)

	budget := prompt.DefaultBudget()
	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.String("config", "", "config file (default $HOME/.pagewise.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("quiet", false, "suppress progress output")
	flags.Bool("log-json", false, "log as JSON")

	// Model settings
	flags.StringP("provider", "p", "", "model provider: gemini, anthropic, openai, openrouter, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use the provider's env var)")
	flags.String("base-url", "", "custom model API base URL")

	// Fetch settings
	flags.StringSlice("strategies", nil, "fetch strategies in order (default rendered,driver,remote,static)")
	flags.Duration("timeout", 30*time.Second, "timeout for each fetch strategy")
	flags.String("article", "none", "article cleaner: none, readability, trafilatura, markdown, auto")

	// Prompt budget
	flags.Int("max-items", budget.MaxItems, "headings and paragraphs sent to the model")
	flags.Int("max-chars", budget.MaxChars, "characters of page content sent to the model")
	flags.Int("max-links", budget.MaxLinks, "links listed in the prompt")

	for key, flag := range map[string]string{
		"config":     "config",
		"debug":      "debug",
		"quiet":      "quiet",
		"log_json":   "log-json",
		"provider":   "provider",
		"model":      "model",
		"api_key":    "api-key",
		"base_url":   "base-url",
		"strategies": "strategies",
		"timeout":    "timeout",
		"article":    "article",
		"max_items":  "max-items",
		"max_chars":  "max-chars",
		"max_links":  "max-links",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".pagewise")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	// Environment variables, e.g. PAGEWISE_RENDER_ENDPOINT
	viper.SetEnvPrefix("PAGEWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

func initLogging(_ *cobra.Command, _ []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config loaded", "file", f)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
