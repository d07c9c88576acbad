// Package api serves stored analysis runs over HTTP.
//
// Routes:
//
//	GET /healthz                         liveness
//	GET /runs                            run summaries, newest first
//	GET /runs/{id}                       one run with every report
//	GET /runs/{id}/reports/{name}        one package report (?version= selects)
//
// Runs are immutable once saved, so recently served runs are kept in an
// in-memory LRU in front of the [reportstore.Store].
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/depweight/pkg/buildinfo"
	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/observability"
	"github.com/matzehuels/depweight/pkg/reportstore"
)

// DefaultRunCacheSize is used when Options.RunCacheSize is not positive.
const DefaultRunCacheSize = 128

// Options configures a Server.
type Options struct {
	Addr         string
	RunCacheSize int
	Logger       *log.Logger
}

// Server is the HTTP front end for a report store.
type Server struct {
	store  reportstore.Store
	runs   *lru.Cache[string, *reportstore.Run]
	logger *log.Logger
	addr   string
	router chi.Router
}

// New creates a Server reading from store.
func New(store reportstore.Store, opts Options) (*Server, error) {
	size := opts.RunCacheSize
	if size <= 0 {
		size = DefaultRunCacheSize
	}
	runs, err := lru.New[string, *reportstore.Run](size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create run cache")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{store: store, runs: runs, logger: logger, addr: opts.Addr}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/reports/{name}", s.handleGetReport)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeIO, err, "serve %s", s.addr)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe reports each request to the HTTP hooks, labelled by route pattern
// rather than raw path so run IDs do not explode cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "elapsed", elapsed)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []reportstore.Summary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := chi.URLParam(r, "name")
	version := r.URL.Query().Get("version")
	rep, ok := run.Report(name, version)
	if !ok {
		if version != "" {
			name += "@" + version
		}
		s.writeError(w, errors.New(errors.ErrCodePackageNotFound, "no report for %s in run %s", name, run.ID))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) run(ctx context.Context, id string) (*reportstore.Run, error) {
	if run, ok := s.runs.Get(id); ok {
		return run, nil
	}
	run, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.runs.Add(id, run)
	return run, nil
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrCodeRunNotFound),
		errors.Is(err, errors.ErrCodePackageNotFound),
		errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
