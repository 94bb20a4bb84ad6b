// Package server exposes the scatter chart over HTTP: the selection state,
// the settled marks with their tooltips, and rendered chart images.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/export"
	"github.com/iafilius/StateScatter/src/logging"
	"github.com/iafilius/StateScatter/src/scene"
)

// Server binds one controller, drawn onto a scene document, to a router.
type Server struct {
	ctrl    *chart.Controller
	doc     *scene.Document
	images  *cache.Cache
	handler http.Handler

	hoverMu sync.Mutex // one tooltip node; hover+read+unhover must not interleave
}

// New draws the chart for ds and builds the router. Cancelling ctx stops
// running transitions.
func New(ctx context.Context, ds dataset.Dataset, cfg Config) (*Server, error) {
	doc := scene.New()
	ctrl := chart.NewController(ds, doc, chart.DefaultLayout())
	if err := ctrl.Draw(ctx); err != nil {
		return nil, fmt.Errorf("draw chart: %w", err)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	s := &Server{
		ctrl:   ctrl,
		doc:    doc,
		images: cache.New(ttl, 2*ttl),
	}

	r := mux.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/points", s.handlePoints).Methods(http.MethodGet)
	api.HandleFunc("/points/{index:[0-9]+}/tooltip", s.handleTooltip).Methods(http.MethodGet)
	api.HandleFunc("/chart.{format}", s.handleChart).Methods(http.MethodGet)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		MaxAge:         86400,
	}).Handler(r)
	return s, nil
}

// Handler returns the root handler (router wrapped in CORS).
func (s *Server) Handler() http.Handler { return s.handler }

// Controller exposes the chart controller.
func (s *Server) Controller() *chart.Controller { return s.ctrl }

// Close stops in-flight transitions and drops cached images.
func (s *Server) Close() {
	s.ctrl.Close()
	s.images.Flush()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: status})
}

// num maps non-finite values to null; encoding/json rejects NaN and Inf.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type labelResponse struct {
	Field  string `json:"field"`
	Text   string `json:"text"`
	Active bool   `json:"active"`
}

type stateResponse struct {
	SelectedX string          `json:"selected_x"`
	Changed   *bool           `json:"changed,omitempty"`
	XDomain   [2]*float64     `json:"x_domain"`
	YDomain   [2]*float64     `json:"y_domain"`
	Labels    []labelResponse `json:"labels"`
	Animating bool            `json:"animating"`
}

type pointResponse struct {
	Index   int      `json:"index"`
	Abbr    string   `json:"abbr"`
	State   string   `json:"state,omitempty"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	CX      *float64 `json:"cx"`
	CY      *float64 `json:"cy"`
	Tooltip string   `json:"tooltip"`
}

type tooltipResponse struct {
	Index int      `json:"index"`
	HTML  string   `json:"html"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

func (s *Server) state() stateResponse {
	snap := s.ctrl.Snapshot()
	resp := stateResponse{
		SelectedX: string(snap.Field),
		XDomain:   [2]*float64{num(snap.XScale.Domain[0]), num(snap.XScale.Domain[1])},
		YDomain:   [2]*float64{num(snap.YScale.Domain[0]), num(snap.YScale.Domain[1])},
		Animating: s.doc.Animating(),
	}
	for _, l := range snap.Labels {
		resp.Labels = append(resp.Labels, labelResponse{Field: string(l.Field), Text: l.Text, Active: l.Active})
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "points": len(s.ctrl.Dataset())})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

type selectRequest struct {
	Field string `json:"field"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	f, ok := dataset.ParseField(req.Field)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", req.Field))
		return
	}
	changed, err := s.ctrl.SelectField(f)
	if err != nil {
		s.selectFailed(w, err)
		return
	}
	resp := s.state()
	resp.Changed = &changed
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) selectFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, chart.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logging.Errorf("select: %v", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	out := make([]pointResponse, len(snap.Marks))
	for i, m := range snap.Marks {
		out[i] = pointResponse{
			Index: m.Index, Abbr: m.Abbr, State: m.State,
			X: num(m.X), Y: num(m.Y), CX: num(m.CX), CY: num(m.CY),
			Tooltip: m.Tooltip,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTooltip hovers mark i on the scene, reads the tooltip node and
// unhovers again.
func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	s.hoverMu.Lock()
	defer s.hoverMu.Unlock()
	if !s.doc.Hover(i) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no point %d", i))
		return
	}
	tip := s.doc.Frame().Tooltip
	s.doc.Unhover(i)
	writeJSON(w, http.StatusOK, tooltipResponse{Index: i, HTML: tip.HTML, X: num(tip.X), Y: num(tip.Y)})
}

func imageCacheKey(f dataset.Field, format export.Format) string {
	return "chart:" + string(f) + ":" + string(format)
}

// handleChart renders the chart for the selected field, or for ?field=
// without changing the selection.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var snap chart.Snapshot
	if q := r.URL.Query().Get("field"); q != "" {
		f, ok := dataset.ParseField(q)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", q))
			return
		}
		if snap, err = s.ctrl.SnapshotFor(f); err != nil {
			s.selectFailed(w, err)
			return
		}
	} else {
		snap = s.ctrl.Snapshot()
	}

	key := imageCacheKey(snap.Field, format)
	if b, ok := s.images.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeImage(w, format, b.([]byte))
		return
	}
	defer logging.TimeTrack(time.Now(), "render "+key)
	var buf bytes.Buffer
	if err := export.Render(&buf, snap, format); err != nil {
		logging.Errorf("render %s: %v", key, err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	s.images.Set(key, buf.Bytes(), cache.DefaultExpiration)
	w.Header().Set("X-Cache", "MISS")
	writeImage(w, format, buf.Bytes())
}

func writeImage(w http.ResponseWriter, format export.Format, b []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Write(b)
}
