// Package monitor serves the debug HTTP interface: engine status, entity
// snapshots and trail charts.
package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motus/internal/httputil"
	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/monitoring"
	"github.com/banshee-data/motus/internal/version"
)

// Source is what the monitor reads. *mocap.Engine satisfies it.
type Source interface {
	Snapshot() []mocap.EntitySnapshot
	Stats() mocap.EngineStats
}

// WebServer handles the HTTP interface for watching the pipeline.
type WebServer struct {
	address  string
	source   Source
	server   *http.Server
	runID    string
	started  time.Time
	listen   string
	forward  string
	tickRate time.Duration
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address        string
	Source         Source
	ListenAddress  string
	ForwardAddress string
	TickInterval   time.Duration
	// RunID identifies this process in logs and status. A random UUID is
	// used when empty.
	RunID string
}

// NewWebServer creates a web server that is not yet listening.
func NewWebServer(config WebServerConfig) *WebServer {
	runID := config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ws := &WebServer{
		address:  config.Address,
		source:   config.Source,
		runID:    runID,
		started:  time.Now(),
		listen:   config.ListenAddress,
		forward:  config.ForwardAddress,
		tickRate: config.TickInterval,
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// RunID returns the process run identifier.
func (ws *WebServer) RunID() string { return ws.runID }

// Start serves until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting monitor HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("monitor HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("monitor HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("monitor HTTP server stopped")
	return nil
}

// Handler returns the routes, for tests and embedding.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/api/entities", ws.handleEntities)
	mux.HandleFunc("/debug/trails", ws.handleTrailsChart)
	mux.HandleFunc("/debug/trails.png", ws.handleTrailsPNG)
	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	RunID          string            `json:"run_id"`
	Version        string            `json:"version"`
	Uptime         string            `json:"uptime"`
	ListenAddress  string            `json:"listen_address,omitempty"`
	ForwardAddress string            `json:"forward_address,omitempty"`
	TickInterval   string            `json:"tick_interval,omitempty"`
	Stats          mocap.EngineStats `json:"stats"`
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	resp := StatusResponse{
		RunID:          ws.runID,
		Version:        version.String(),
		Uptime:         time.Since(ws.started).Round(time.Second).String(),
		ListenAddress:  ws.listen,
		ForwardAddress: ws.forward,
	}
	if ws.tickRate > 0 {
		resp.TickInterval = ws.tickRate.String()
	}
	if ws.source != nil {
		resp.Stats = ws.source.Stats()
	}
	httputil.WriteJSONOK(w, resp)
}

func (ws *WebServer) handleEntities(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	if ws.source == nil {
		httputil.ServiceUnavailable(w, "pipeline not configured")
		return
	}
	httputil.WriteJSONOK(w, ws.source.Snapshot())
}

// selectEntity picks the snapshot named by the "id" query parameter, or the
// first one.
func (ws *WebServer) selectEntity(w http.ResponseWriter, r *http.Request) (mocap.EntitySnapshot, bool) {
	if ws.source == nil {
		httputil.ServiceUnavailable(w, "pipeline not configured")
		return mocap.EntitySnapshot{}, false
	}
	snaps := ws.source.Snapshot()
	if len(snaps) == 0 {
		httputil.NotFound(w, "no entities yet")
		return mocap.EntitySnapshot{}, false
	}

	raw := r.URL.Query().Get("id")
	if raw == "" {
		return snaps[0], true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		httputil.BadRequest(w, "invalid id")
		return mocap.EntitySnapshot{}, false
	}
	for _, s := range snaps {
		if s.ID == id {
			return s, true
		}
	}
	httputil.NotFound(w, "unknown entity")
	return mocap.EntitySnapshot{}, false
}
