package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
)

// OpSource reports host mutations as they happen. *host.Memory is one.
type OpSource interface {
	Observe(fn func(host.Op))
}

// Server is the inspector.
type Server struct {
	eng      *engine.Engine
	loop     *engine.Loop
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry served at /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates an inspector for eng. All engine calls run on loop, which
// the caller must Run. When ops is non-nil its mutations are streamed on
// /ws.
func New(eng *engine.Engine, loop *engine.Loop, ops OpSource, opts ...Option) *Server {
	s := &Server{
		eng:      eng,
		loop:     loop,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)
	if ops != nil {
		ops.Observe(s.hub.Publish)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/roots", s.listRoots)
	r.Route("/roots/{id}", func(r chi.Router) {
		r.Get("/", s.getRoot)
		r.Delete("/", s.deleteRoot)
		r.Post("/messages", s.broadcast)
	})
	r.Get("/stats", s.stats)
	r.Post("/snapshot", s.snapshot)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Handle("/ws", s.hub)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("inspector listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Code: errors.CodeOf(err), Message: err.Error()})
}

func rootID(r *http.Request) (engine.RootID, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return engine.RootID(n), true
}

func (s *Server) listRoots(w http.ResponseWriter, r *http.Request) {
	var roots []engine.RootInfo
	err := s.loop.Do(r.Context(), func() error {
		roots = s.eng.Describe()
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if roots == nil {
		roots = []engine.RootInfo{}
	}
	writeJSON(w, http.StatusOK, roots)
}

func (s *Server) getRoot(w http.ResponseWriter, r *http.Request) {
	id, ok := rootID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid root id"})
		return
	}
	var (
		info  engine.RootInfo
		found bool
	)
	err := s.loop.Do(r.Context(), func() error {
		info, found = s.eng.DescribeRoot(id)
		return nil
	})
	switch {
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody{Message: "root not found"})
	default:
		writeJSON(w, http.StatusOK, info)
	}
}

func (s *Server) deleteRoot(w http.ResponseWriter, r *http.Request) {
	id, ok := rootID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid root id"})
		return
	}
	err := s.loop.Do(r.Context(), func() error {
		return s.eng.DestroyRoot(id)
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.CodeOf(err) == "E105" {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// broadcast decodes the request body as JSON and broadcasts the value to
// the root's tree.
func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	id, ok := rootID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid root id"})
		return
	}
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON payload: " + err.Error()})
		return
	}
	err := s.loop.Do(r.Context(), func() error {
		h := s.eng.RootHandle(id)
		if !h.Valid() {
			return engine.ErrInvalidRoot
		}
		return s.eng.SendBroadcast(h, payload)
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.CodeOf(err) == "E105" {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	var st engine.Stats
	err := s.loop.Do(r.Context(), func() error {
		st = s.eng.Stats()
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	err := s.loop.Do(r.Context(), func() error {
		return s.eng.Save(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
