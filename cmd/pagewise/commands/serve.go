package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewise/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question API over HTTP",
	Long: `Serve the HTTP API.

  GET  /        welcome message
  POST /query   {"url": "...", "question": "...", "topic": "..."}

Examples:
  pagewise serve --addr :8080
  curl -s localhost:8080/query -d '{"url":"books.toscrape.com","question":"What is sold here?"}'`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	def := server.DefaultConfig()
	flags := serveCmd.Flags()
	flags.String("addr", def.Addr, "listen address")
	flags.Duration("request-timeout", def.RequestTimeout, "timeout for one /query request")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	requestTimeout, _ := cmd.Flags().GetDuration("request-timeout")

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(true)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	logInfo("Serving on %s", addr)
	return server.New(client, server.Config{
		Addr:            addr,
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: 10 * time.Second,
	}).ListenAndServe(ctx)
}
