// Package api serves floorplan construction over HTTP.
//
// Routes:
//
//	POST   /v1/floorplans                  build a floorplan from pipeline.Options
//	GET    /v1/floorplans                  list stored snapshots (?circuit=&limit=)
//	GET    /v1/floorplans/{id}             fetch a snapshot
//	DELETE /v1/floorplans/{id}             delete a snapshot
//	GET    /v1/floorplans/{id}/partners    the alignment partner table
//	GET    /v1/floorplans/{id}/render      DOT or SVG (?format=&terminals=&partners=&layer=)
//	GET    /healthz                        liveness and build info
//	GET    /metrics                        Prometheus metrics, when configured
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// status from errors.HTTPStatus.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackplan/pkg/buildinfo"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/render"
	"github.com/matzehuels/stackplan/pkg/store"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// Config wires a Server.
type Config struct {
	Runner *pipeline.Runner
	Store  store.Store
	// DataRoot is where circuits are read from. Requests cannot override it.
	DataRoot string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server handles API requests.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	dataRoot string
	metrics  http.Handler
	logger   *log.Logger
}

// New creates a Server. A nil store keeps snapshots in memory.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		dataRoot: cfg.DataRoot,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.dataRoot == "" {
		s.dataRoot = pipeline.DefaultDataRoot
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/floorplans", func(r chi.Router) {
		r.Post("/", s.createFloorplan)
		r.Get("/", s.listFloorplans)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getFloorplan)
			r.Delete("/", s.deleteFloorplan)
			r.Get("/partners", s.getPartners)
			r.Get("/render", s.renderFloorplan)
		})
	})
	return r
}

// observe logs each request and reports it to the API hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.API().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) createFloorplan(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err))
		return
	}
	opts.DataRoot = s.dataRoot

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), res.Snapshot); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/floorplans/"+res.Snapshot.ID)
	writeJSON(w, http.StatusCreated, res.Snapshot)
}

func (s *Server) listFloorplans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), q.Get("circuit"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getFloorplan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteFloorplan(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPartners(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Partners)
}

func (s *Server) renderFloorplan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := render.DefaultOptions()
	if opts.Terminals, err = boolParam(q.Get("terminals"), opts.Terminals); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.Partners, err = boolParam(q.Get("partners"), opts.Partners); err != nil {
		s.writeError(w, err)
		return
	}
	if v := q.Get("layer"); v != "" {
		if opts.Layer, err = strconv.Atoi(v); err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid layer %q", v))
			return
		}
	}

	out, err := s.runner.Render(r.Context(), snap, format, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	contentType := "text/vnd.graphviz; charset=utf-8"
	if format == pipeline.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %q", v)
	}
	return b, nil
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
