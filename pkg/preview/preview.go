// Package preview draws the tessellation seeds, mesh polygons and river
// segments on an echarts page next to the run log.
package preview

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/meshpoints"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
	"github.com/0x0FACED/go-hydromesh/static"
)

// Scene is everything drawn on the chart. Any part may be empty.
type Scene struct {
	Title    string
	Seeds    []meshpoints.Point
	Polygons []mesh.Polygon
	Network  *topology.Network
}

var seedColors = map[meshpoints.Category]string{
	meshpoints.River:    "deepskyblue",
	meshpoints.Grid:     "lightgreen",
	meshpoints.Boundary: "orange",
}

func prepareScatter(scatter *charts.Scatter, title string) {
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Height: "680px",
			Width:  "1020px",
		}),
		charts.WithLegendOpts(opts.Legend{
			TextStyle: &opts.TextStyle{
				Color: "white",
			},
			Right: "10%",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:                title,
			TitleBackgroundColor: "white",
			Left:                 "10%",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:  "value",
			Name:  "X, m",
			Scale: opts.Bool(true),
			AxisLabel: &opts.AxisLabel{
				Color: "white",
			},
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(false),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  "Y, m",
			Scale: opts.Bool(true),
			AxisLabel: &opts.AxisLabel{
				Color: "white",
			},
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(false),
			},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			FilterMode: "none",
			Orient:     "horizontal",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			FilterMode: "none",
			Orient:     "vertical",
		}),
	)
}

// Chart builds a scatter of the seeds, one series per category, with every
// polygon ring, boundary cell and river segment overlapped as a line.
func Chart(s Scene) *charts.Scatter {
	scatter := charts.NewScatter()
	title := s.Title
	if title == "" {
		title = "Watershed mesh"
	}
	prepareScatter(scatter, title)

	for _, cat := range []meshpoints.Category{meshpoints.River, meshpoints.Grid, meshpoints.Boundary} {
		var points []opts.ScatterData
		for _, p := range s.Seeds {
			if p.Category == cat {
				points = append(points, opts.ScatterData{Value: []float64{p.X, p.Y}, SymbolSize: 5})
			}
		}
		if len(points) == 0 {
			continue
		}
		scatter.AddSeries(fmt.Sprintf("%s seeds", cat), points).
			SetSeriesOptions(
				charts.WithItemStyleOpts(opts.ItemStyle{
					Color: seedColors[cat],
				}),
			)
	}

	for _, p := range s.Polygons {
		if len(p.Ring) == 0 {
			continue
		}
		data := make([]opts.LineData, 0, len(p.Ring)+1)
		for _, v := range p.Ring {
			data = append(data, opts.LineData{Value: []float64{v.X, v.Y}})
		}
		data = append(data, data[0])
		scatter.Overlap(segmentLine("Polygons", data, "gray", 1))
	}

	for _, ring := range BoundaryCells(s.Seeds) {
		data := make([]opts.LineData, 0, len(ring)+1)
		for _, v := range ring {
			data = append(data, opts.LineData{Value: []float64{v.X, v.Y}})
		}
		data = append(data, data[0])
		scatter.Overlap(segmentLine("Boundary cells", data, "dimgray", 1))
	}

	if s.Network != nil {
		for id := 1; id < len(s.Network.Segments); id++ {
			seg := s.Network.Segments[id]
			down := s.Network.Segments[seg.Down]
			scatter.Overlap(segmentLine("River", []opts.LineData{
				{Value: []float64{seg.X, seg.Y}},
				{Value: []float64{down.X, down.Y}},
			}, "dodgerblue", 3))
		}
	}

	return scatter
}

// BoundaryCells returns the cells of the boundary seeds, clipped to the
// padded bounds of all seeds and closed along them. The mesh leaves these
// cells open; they are only drawn.
func BoundaryCells(seeds []meshpoints.Point) [][]voronoi.Vertex {
	if len(seeds) < 2 {
		return nil
	}
	// sweep around a local origin
	ox, oy := seeds[0].X, seeds[0].Y
	for _, s := range seeds[1:] {
		ox, oy = min(ox, s.X), min(oy, s.Y)
	}
	sites := make([]voronoi.Vertex, len(seeds))
	for i, s := range seeds {
		sites[i] = voronoi.Vertex{X: s.X - ox, Y: s.Y - oy}
	}

	bbox := voronoi.BoundsOf(sites)
	bbox = bbox.Pad(max(0.05*max(bbox.Xr-bbox.Xl, bbox.Yb-bbox.Yt), 1))
	d := voronoi.CreateDiagram(sites, bbox, true, nil)

	var rings [][]voronoi.Vertex
	for i, s := range seeds {
		if s.Category != meshpoints.Boundary {
			continue
		}
		c := d.CellOf(i)
		if c == nil {
			continue
		}
		ring := c.Ring(1e-6)
		if len(ring) < 3 {
			continue
		}
		for k := range ring {
			ring[k].X += ox
			ring[k].Y += oy
		}
		rings = append(rings, ring)
	}
	return rings
}

func segmentLine(name string, data []opts.LineData, color string, width float32) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(true)}),
	)
	line.AddSeries(name, data).SetSeriesOptions(
		charts.WithLineStyleOpts(opts.LineStyle{
			Color: color,
			Width: width,
		}),
	)
	return line
}

// Page writes the chart between the static page parts, followed by logs,
// an HTML fragment such as logger.ZapLogger.HTML. form adds the parameter
// form posted back to the preview server.
func Page(w io.Writer, chart *charts.Scatter, logs string, form bool) error {
	fmt.Fprintln(w, static.Part1)
	if form {
		fmt.Fprintln(w, static.Form)
	}
	if err := chart.Render(w); err != nil {
		return err
	}
	fmt.Fprintln(w, static.Part2)
	fmt.Fprintln(w, logs)
	fmt.Fprintln(w, static.Part3)
	if form {
		fmt.Fprintln(w, static.Script)
	}
	_, err := fmt.Fprintln(w, static.End)
	return err
}

// Render writes a standalone preview page of s.
func Render(w io.Writer, s Scene, logs string) error {
	return Page(w, Chart(s), logs, false)
}
