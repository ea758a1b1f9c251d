package monitor

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/testutil"
)

type fakeSource struct {
	snaps []mocap.EntitySnapshot
	stats mocap.EngineStats
}

func (f *fakeSource) Snapshot() []mocap.EntitySnapshot { return f.snaps }
func (f *fakeSource) Stats() mocap.EngineStats         { return f.stats }

func engineWithData(t *testing.T) *mocap.Engine {
	t.Helper()
	eng := mocap.NewEngine(mocap.DefaultConfig(), nil, nil)
	for i := 0; i < 60; i++ {
		v := float64(i)
		eng.Queue().Push(mocap.Reading{DeviceID: "3", Index: 3, AccelX: v, AccelY: v * 0.5, AccelZ: 1, Timestamp: v})
	}
	eng.Step(1)
	return eng
}

func serve(ws *WebServer, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, testutil.NewTestRequest(method, path))
	return rec
}

func TestNewWebServer_RunID(t *testing.T) {
	ws := NewWebServer(WebServerConfig{})
	_, err := uuid.Parse(ws.RunID())
	assert.NoError(t, err)

	ws = NewWebServer(WebServerConfig{RunID: "fixed"})
	assert.Equal(t, "fixed", ws.RunID())
}

func TestHandleHealth(t *testing.T) {
	rec := serve(NewWebServer(WebServerConfig{}), http.MethodGet, "/health")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, map[string]string{"status": "ok"}, testutil.DecodeJSON[map[string]string](t, rec))
}

func TestHandleStatus(t *testing.T) {
	src := &fakeSource{stats: mocap.EngineStats{Ticks: 12, Readings: 40, Sensors: 2}}
	ws := NewWebServer(WebServerConfig{
		Source:         src,
		RunID:          "run-1",
		ListenAddress:  ":8887",
		ForwardAddress: "127.0.0.1:8888",
		TickInterval:   20 * time.Millisecond,
	})

	rec := serve(ws, http.MethodGet, "/api/status")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	got := testutil.DecodeJSON[StatusResponse](t, rec)
	assert.Equal(t, "run-1", got.RunID)
	assert.Contains(t, got.Version, "motus")
	assert.Equal(t, "20ms", got.TickInterval)
	assert.Equal(t, ":8887", got.ListenAddress)
	assert.Equal(t, src.stats, got.Stats)
}

func TestHandleStatus_MethodNotAllowed(t *testing.T) {
	rec := serve(NewWebServer(WebServerConfig{}), http.MethodPost, "/api/status")
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestHandleEntities(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Source: engineWithData(t)})
	rec := serve(ws, http.MethodGet, "/api/entities")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	got := testutil.DecodeJSON[[]mocap.EntitySnapshot](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, mocap.SensorID{DeviceID: "3", Index: 3}, got[0].Sensor)
	assert.Equal(t, 48, got[0].OutputLens["averaging"])
	assert.Len(t, got[0].Trails["average"], mocap.DefaultMaxDraw)
}

func TestHandleEntities_NoSource(t *testing.T) {
	rec := serve(NewWebServer(WebServerConfig{}), http.MethodGet, "/api/entities")
	testutil.AssertStatusCode(t, rec.Code, http.StatusServiceUnavailable)
}

func TestHandleTrailsChart(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Source: engineWithData(t)})
	rec := serve(ws, http.MethodGet, "/debug/trails")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "derivative1")
	assert.Contains(t, body, "motus trails")
}

func TestHandleTrailsPNG(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Source: engineWithData(t)})
	rec := serve(ws, http.MethodGet, "/debug/trails.png?id=0")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestSelectEntity_Errors(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Source: &fakeSource{}})
	testutil.AssertStatusCode(t, serve(ws, http.MethodGet, "/debug/trails").Code, http.StatusNotFound)

	ws = NewWebServer(WebServerConfig{Source: &fakeSource{snaps: []mocap.EntitySnapshot{{ID: 0}}}})
	testutil.AssertStatusCode(t, serve(ws, http.MethodGet, "/debug/trails?id=x").Code, http.StatusBadRequest)
	testutil.AssertStatusCode(t, serve(ws, http.MethodGet, "/debug/trails.png?id=4").Code, http.StatusNotFound)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestTrailPlot_SkipsMissingPoints(t *testing.T) {
	snap := mocap.EntitySnapshot{
		Sensor: mocap.SensorID{DeviceID: "3", Index: 3},
		Trails: map[string][]mocap.TrailPoint{
			"derivative1": {
				{X: 1, Y: 2, Alpha: mocap.NoData},
				{X: mocap.NoData, Y: 3},
				{X: 4, Y: mocap.NoData},
				{X: 5, Y: 6},
			},
			"derivative2": {{X: mocap.NoData, Y: mocap.NoData}},
		},
	}

	p, err := trailPlot(snap)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.X.Min)
	assert.Equal(t, 5.0, p.X.Max)
	assert.Equal(t, 2.0, p.Y.Min)
	assert.Equal(t, 6.0, p.Y.Max)

	pts := drawable(snap.Trails["derivative1"])
	assert.Equal(t, []mocap.TrailPoint{{X: 1, Y: 2}, {X: 5, Y: 6}}, pts)
	assert.Empty(t, drawable(snap.Trails["derivative2"]))
}
