// Package server exposes the question pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmylchreest/pagewise/internal/logger"
	"github.com/jmylchreest/pagewise/internal/version"
	"github.com/jmylchreest/pagewise/pkg/fetcher"
	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/pagewise"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to the pagewise API! POST a url and a question to /query."

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Asker answers questions about pages. *pagewise.Client implements it.
type Asker interface {
	Ask(ctx context.Context, req pagewise.Request) (*pagewise.Answer, error)
}

// Config holds server settings.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration // Bounds one /query request end to end
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		RequestTimeout:  2 * time.Minute,
		MaxBodyBytes:    64 << 10,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the HTTP API.
type Server struct {
	asker Asker
	cfg   Config
}

// New creates a Server. Zero config fields take their defaults.
func New(asker Asker, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	return &Server{asker: asker, cfg: cfg}
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	URL      string `json:"url"`
	Question string `json:"question"`
	Topic    string `json:"topic,omitempty"`
	MaxItems int    `json:"max_items,omitempty"` // Overrides the prompt budget when positive
	MaxChars int    `json:"max_chars,omitempty"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	URL      string `json:"url"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Strategy string `json:"strategy,omitempty"`
	Degraded bool   `json:"degraded,omitempty"` // The model call failed; Answer describes why
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /query", s.handleQuery)
	return withRequestID(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": WelcomeMessage,
		"version": version.String(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())
	log := logger.With("request_id", reqID)

	var q QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body: trailing data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	ans, err := s.asker.Ask(ctx, pagewise.Request{
		URL:      q.URL,
		Question: q.Question,
		Topic:    q.Topic,
		MaxItems: q.MaxItems,
		MaxChars: q.MaxChars,
	})
	if err != nil {
		status := statusFor(err)
		log.Warn("query failed", "url", q.URL, "status", status, "duration", time.Since(start), "error", err)
		s.writeError(w, r, status, err.Error())
		return
	}

	resp := QueryResponse{
		URL:      q.URL,
		Question: q.Question,
		Answer:   ans.Text,
		Degraded: ans.Err != nil,
	}
	if ans.Page != nil {
		resp.Strategy = ans.Page.Strategy
	}
	log.Info("query answered", "url", q.URL, "strategy", resp.Strategy, "degraded", resp.Degraded, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var all *fetcher.AllStrategiesFailedError
	switch {
	case errors.Is(err, pagewise.ErrInvalidRequest), errors.Is(err, page.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.As(err, &all):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

type requestIDKey struct{}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID reuses a well-formed incoming X-Request-ID or assigns a new
// UUID, and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
