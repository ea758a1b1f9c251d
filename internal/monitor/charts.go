package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/motus/internal/httputil"
	"github.com/banshee-data/motus/internal/mocap"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

func trailNames(snap mocap.EntitySnapshot) []string {
	names := make([]string, 0, len(snap.Trails))
	for name := range snap.Trails {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// drawable drops points whose position is missing. A missing alpha is
// drawn as zero.
func drawable(pts []mocap.TrailPoint) []mocap.TrailPoint {
	out := make([]mocap.TrailPoint, 0, len(pts))
	for _, p := range pts {
		if p.X == mocap.NoData || p.Y == mocap.NoData {
			continue
		}
		if p.Alpha == mocap.NoData {
			p.Alpha = 0
		}
		out = append(out, p)
	}
	return out
}

// handleTrailsChart renders an entity's trails as an HTML scatter chart.
// Query params:
//   - id (optional; defaults to the first entity)
func (ws *WebServer) handleTrailsChart(w http.ResponseWriter, r *http.Request) {
	snap, ok := ws.selectEntity(w, r)
	if !ok {
		return
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "motus trails", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Entity trails", Subtitle: fmt.Sprintf("entity=%d sensor=%s", snap.ID, snap.Sensor)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Scale: opts.Bool(true)}),
	)

	for _, name := range trailNames(snap) {
		pts := drawable(snap.Trails[name])
		data := make([]opts.ScatterData, 0, len(pts))
		for _, p := range pts {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Alpha}})
		}
		scatter.AddSeries(name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTrailsPNG renders an entity's trails as a PNG line plot.
func (ws *WebServer) handleTrailsPNG(w http.ResponseWriter, r *http.Request) {
	snap, ok := ws.selectEntity(w, r)
	if !ok {
		return
	}

	p, err := trailPlot(snap)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func trailPlot(snap mocap.EntitySnapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Entity %d (%s)", snap.ID, snap.Sensor)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	for i, name := range trailNames(snap) {
		pts := drawable(snap.Trails[name])
		if len(pts) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(pts))
		for j, pt := range pts {
			xys[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("trail %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}
