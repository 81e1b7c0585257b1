package webd

import (
	"encoding/json"
	"errors"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trackclust/api"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/metrics"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/s2"
	"github.com/rotblauer/trackclust/source"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"net/http"
	"time"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Cached    int                     `json:"cached"`
	Metrics   map[string]any          `json:"metrics"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
		Cached:    s.recent.Len(),
		Metrics:   metrics.Snapshot(),
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(j); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func getRequestGridID(r *http.Request) conceptual.GridID {
	if id, ok := mux.Vars(r)["grid"]; ok {
		return conceptual.GridID(id)
	}
	return conceptual.GridID(r.URL.Query().Get("grid"))
}

func (s *WebDaemon) handleGetGridForRequest(w http.ResponseWriter, r *http.Request) (conceptual.GridID, bool) {
	id := getRequestGridID(r)
	if id.IsEmpty() {
		s.logger.Warn("Missing grid", "url", r.URL)
		http.Error(w, "Missing grid", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// storeError writes 404 for unknown grids and 500 for anything else.
func (s *WebDaemon) storeError(w http.ResponseWriter, id conceptual.GridID, err error) {
	if errors.Is(err, trackdb.ErrGridNotFound) {
		http.Error(w, "Grid not found", http.StatusNotFound)
		return
	}
	s.logger.Error("Failed to read grid", "grid", id, "error", err)
	http.Error(w, "Failed to read grid", http.StatusInternalServerError)
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *WebDaemon) handleGrids(w http.ResponseWriter, r *http.Request) {
	headers, err := s.Store.Grids(r.Context())
	if err != nil {
		s.logger.Error("Failed to list grids", "error", err)
		http.Error(w, "Failed to list grids", http.StatusInternalServerError)
		return
	}
	if headers == nil {
		headers = []segment.GridHeader{}
	}
	s.writeJSON(w, headers)
}

// gridResponse is a grid header with the outline of its S2 cell.
// Grids not named by a cell token, eg. fixed grids posted for processing, have no outline.
type gridResponse struct {
	segment.GridHeader
	Outline *geojson.Geometry `json:"outline,omitempty"`
}

func newGridResponse(h segment.GridHeader) gridResponse {
	resp := gridResponse{GridHeader: h}
	if poly, err := s2.CellPolygon(h.GridID); err == nil {
		resp.Outline = geojson.NewGeometry(poly)
	}
	return resp
}

func (s *WebDaemon) handleGrid(w http.ResponseWriter, r *http.Request) {
	id, ok := s.handleGetGridForRequest(w, r)
	if !ok {
		return
	}
	if cached, ok := s.recent.Get(id); ok {
		s.writeJSON(w, newGridResponse(cached.Header()))
		return
	}
	header, err := s.Store.Grid(r.Context(), id)
	if err != nil {
		s.storeError(w, id, err)
		return
	}
	s.writeJSON(w, newGridResponse(header))
}

func (s *WebDaemon) handleClusters(w http.ResponseWriter, r *http.Request) {
	id, ok := s.handleGetGridForRequest(w, r)
	if !ok {
		return
	}
	if cached, ok := s.recent.Get(id); ok {
		s.writeJSON(w, cached.Summaries)
		return
	}
	summaries, err := s.Store.Clusters(r.Context(), id)
	if err != nil {
		s.storeError(w, id, err)
		return
	}
	if summaries == nil {
		summaries = []segment.ClusterSummary{}
	}
	s.writeJSON(w, summaries)
}

// handleSegments writes a grid's segments as a GeoJSON FeatureCollection.
func (s *WebDaemon) handleSegments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.handleGetGridForRequest(w, r)
	if !ok {
		return
	}
	segs, err := s.Store.Segments(r.Context(), id)
	if err != nil {
		s.storeError(w, id, err)
		return
	}
	s.writeJSON(w, segment.FeatureCollection(segs))
}

type processResponse struct {
	Stats     source.Stats             `json:"stats"`
	Header    segment.GridHeader       `json:"header"`
	Summaries []segment.ClusterSummary `json:"summaries"`
}

// handleProcess runs the pipeline over NDJSON points posted for one grid.
// Every point goes to the grid named in the path regardless of its location.
// The ?unit= query parameter sets how numeric timestamps are read.
func (s *WebDaemon) handleProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := s.handleGetGridForRequest(w, r)
	if !ok {
		return
	}
	unit, err := trackpoint.ParseTimeUnit(r.URL.Query().Get("unit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusUnprocessableEntity)
		return
	}

	opts := source.DefaultOptions()
	opts.Unit = unit
	opts.FixedGrid = id

	ctx := r.Context()
	mem, stats, err := source.LoadNDJSON(ctx, r.Body, opts)
	if err != nil {
		s.logger.Error("Failed to read points", "grid", id, "error", err)
		http.Error(w, "Failed to read points", http.StatusUnprocessableEntity)
		return
	}
	if mem.Len() == 0 {
		s.logger.Warn("No points decoded", "grid", id, "lines", stats.Lines, "bad", stats.Bad)
		http.Error(w, "No points decoded", http.StatusUnprocessableEntity)
		return
	}

	runner := api.NewRunner(s.Config.Pipeline, mem, s.Store, s.Resolver)
	reports, err := runner.Run(ctx, []conceptual.GridID{id})
	if err != nil {
		s.logger.Error("Failed to run pipeline", "grid", id, "error", err)
		http.Error(w, "Failed to run pipeline", http.StatusInternalServerError)
		return
	}
	report := reports[0]
	if report.Failed() {
		s.logger.Error("Grid failed", "grid", id, "error", report.Err)
		http.Error(w, "Grid failed", http.StatusInternalServerError)
		return
	}

	summaries, err := s.Store.Clusters(ctx, id)
	if err != nil {
		s.storeError(w, id, err)
		return
	}
	s.writeJSON(w, processResponse{
		Stats:     stats,
		Header:    report.Header,
		Summaries: summaries,
	})
}
