package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/signature"
)

// MaxUUIDCount bounds a single uuid request.
const MaxUUIDCount = 1000

// DefaultMaxBodyBytes bounds a synchronize request body.
const DefaultMaxBodyBytes = 64 << 20

// Server serves the lineage HTTP API.
type Server struct {
	engine    *engine.Engine
	signature signature.Provider
	logger    *slog.Logger
	metrics   *metrics
	router    *chi.Mux
	maxBody   int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBodyBytes bounds the size of a posted notebook. Larger bodies
// are answered with 413.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// New creates a Server minting through e and reporting sig.
func New(e *engine.Engine, sig signature.Provider, opts ...Option) *Server {
	s := &Server{
		engine:    e,
		signature: sig,
		logger:    slog.Default(),
		metrics:   newMetrics(),
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Route("/nblineage", func(r chi.Router) {
		r.Get("/uuid/v1/{count}", s.handleUUID)
		r.Get("/lc/server_signature", s.handleSignature)
		r.Post("/lineage/synchronize", s.handleSynchronize)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("server started", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

// instrument counts requests by route pattern and logs them at Debug.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleUUID(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil || count < 0 || count > MaxUUIDCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be an integer in [0,%d]", MaxUUIDCount))
		return
	}

	ids := s.engine.Codec().MintN(count)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	s.metrics.uuidMinted.Add(float64(count))
	writeJSON(w, http.StatusOK, map[string]any{"uuid": out})
}

func (s *Server) handleSignature(w http.ResponseWriter, r *http.Request) {
	rec, err := s.signature.Signature(r.Context())
	if err != nil {
		s.logger.Error("server signature unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, "server signature unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		signature.KeySignatureID: rec.SignatureID,
		signature.KeyNotebookDir: rec.NotebookDir,
	})
}

// handleSynchronize runs Synchronize, or Reset when reset=true, over the
// posted notebook. Reset honours trim=N and clear_signature=true.
func (s *Server) handleSynchronize(w http.ResponseWriter, r *http.Request) {
	doc, err := notebook.Parse(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("notebook exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	mode := "synchronize"
	var res *engine.Result
	if q.Get("reset") == "true" {
		mode = "reset"
		opts := engine.ResetOptions{ClearOriginSignature: q.Get("clear_signature") == "true"}
		if t := q.Get("trim"); t != "" {
			n, err := strconv.Atoi(t)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "trim must be a non-negative integer")
				return
			}
			opts.Trim = lineage.TrimTo(n)
		}
		res, err = s.engine.Reset(doc, opts)
	} else {
		res, err = s.engine.Synchronize(doc, engine.SyncOptions{})
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.synchronized.WithLabelValues(mode).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := notebook.Write(w, res.Document); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
