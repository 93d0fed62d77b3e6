package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/meshpoints"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
)

func sampleScene() Scene {
	return Scene{
		Title: "Test basin",
		Seeds: []meshpoints.Point{
			{X: 10, Y: 10, Category: meshpoints.River, Origin: 1},
			{X: 50, Y: 50, Category: meshpoints.Grid, Origin: -1},
			{X: 90, Y: 90, Category: meshpoints.Boundary, Origin: 0},
		},
		Polygons: []mesh.Polygon{{
			ID:   1,
			Ring: []voronoi.Vertex{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}},
		}},
		Network: &topology.Network{Segments: []topology.Segment{
			{ID: 0, Down: topology.NoDownstream, X: 0, Y: 0},
			{ID: 1, Down: 0, X: 0, Y: 300},
		}},
	}
}

func TestRenderStandalone(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleScene(), "<span>run finished</span>"))

	page := buf.String()
	for _, want := range []string{"Test basin", "river seeds", "grid seeds", "boundary seeds", "Polygons", "River", "run finished"} {
		assert.Contains(t, page, want)
	}
	assert.NotContains(t, page, "mesh-form")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(page), "</html>"))
}

func TestPageWithForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Page(&buf, Chart(sampleScene()), "", true))
	assert.Contains(t, buf.String(), `id="mesh-form"`)
	assert.Contains(t, buf.String(), "addEventListener")
}

func TestChartSkipsEmptyCategories(t *testing.T) {
	s := Scene{Seeds: []meshpoints.Point{{X: 1, Y: 1, Category: meshpoints.Grid}}}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s, ""))
	assert.Contains(t, buf.String(), "Watershed mesh")
	assert.Contains(t, buf.String(), "grid seeds")
	assert.NotContains(t, buf.String(), "river seeds")
}

func TestBoundaryCells(t *testing.T) {
	var seeds []meshpoints.Point
	for _, x := range []float64{0, 100} {
		for _, y := range []float64{0, 100} {
			seeds = append(seeds, meshpoints.Point{X: 500000 + x, Y: 4000000 + y, Category: meshpoints.Grid})
		}
	}
	for _, v := range [][2]float64{{-100, -100}, {50, -100}, {200, -100}, {200, 50}, {200, 200}, {50, 200}, {-100, 200}, {-100, 50}} {
		seeds = append(seeds, meshpoints.Point{X: 500000 + v[0], Y: 4000000 + v[1], Category: meshpoints.Boundary})
	}

	rings := BoundaryCells(seeds)
	require.Len(t, rings, 8)
	for _, ring := range rings {
		assert.GreaterOrEqual(t, len(ring), 3)
		for _, v := range ring {
			// seeds span 300 m, padded by 15 m
			assert.InDelta(t, 500050, v.X, 165+1e-6)
			assert.InDelta(t, 4000050, v.Y, 165+1e-6)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Scene{Seeds: seeds}, ""))
	assert.Contains(t, buf.String(), "Boundary cells")
}

func TestBoundaryCellsTooFewSeeds(t *testing.T) {
	assert.Nil(t, BoundaryCells([]meshpoints.Point{{X: 1, Y: 1, Category: meshpoints.Boundary}}))
}
