package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
)

func samplePolygons() []mesh.Polygon {
	square := func(x, y float64) []voronoi.Vertex {
		return []voronoi.Vertex{{X: x, Y: y}, {X: x + 10, Y: y}, {X: x + 10, Y: y + 10}, {X: x, Y: y + 10}}
	}
	return []mesh.Polygon{
		{
			ID: 1, Seed: 0, Center: voronoi.Vertex{X: 5, Y: 5}, Elevation: 120.456, Area: 100,
			Ring: square(0, 0),
			Neighbors: []mesh.Neighbor{
				{Seed: 1, PolygonID: 2, FaceLength: 10, Distance: 10, Interior: true},
				{Seed: 7, PolygonID: 0, FaceLength: 12.346, Distance: 14.1421, Interior: false},
			},
		},
		{
			ID: 2, Seed: 1, Center: voronoi.Vertex{X: 15, Y: 5}, Elevation: 118, Area: 100,
			Ring: square(10, 0),
			Neighbors: []mesh.Neighbor{
				{Seed: 0, PolygonID: 1, FaceLength: 10, Distance: 10, Interior: true},
			},
		},
	}
}

func sampleRiver() (*topology.Network, []topology.Geometry, []mesh.Bank) {
	net := &topology.Network{Segments: []topology.Segment{
		{ID: 0, Down: topology.NoDownstream, X: 0, Y: 0, ZMin: -999, ZMax: -999, Order: 2},
		{ID: 1, Down: 0, X: 0, Y: 300, ZMin: 80, ZMax: 100, Order: 2, StartCell: 3},
		{ID: 2, Down: 1, X: 400, Y: 300, ZMin: 95.5, ZMax: 115.5, Order: 1, StartCell: 0},
	}}
	geoms := []topology.Geometry{
		{},
		{CenterX: 0, CenterY: 150, Straight: 300, Real: 312.5, Sinuosity: 1.0417},
		{CenterX: 200, CenterY: 300, Straight: 400.9, Real: 400.9, Sinuosity: 1},
	}
	banks := []mesh.Bank{{}, {Segment: 1, Left: 4, Right: 3}, {Segment: 2, Left: 1, Right: 2}}
	return net, geoms, banks
}

func TestWriteMesh(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMesh(&buf, samplePolygons(), 20))

	want := "NUMELE\t2\n" +
		"INDEX   X   Y   Zmin    Zmax    Area    nFaces\n" +
		"1\t5.00\t5.00\t100.46\t120.46\t100.00\t2\n" +
		"2\t15.00\t5.00\t98.00\t118.00\t100.00\t1\n" +
		"\n" +
		"INDEX   ID_Neighbors    Lenght_Face_Neighbors   Distance_to_Neighbors\n" +
		"1 2 0 10.00 12.35 10.00 14.14 \n" +
		"2 1 10.00 10.00 \n"
	assert.Equal(t, want, buf.String())
}

func TestWriteRiver(t *testing.T) {
	net, geoms, banks := sampleRiver()
	var buf bytes.Buffer
	require.NoError(t, WriteRiver(&buf, net, geoms, banks))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "NUMRIV\t2", lines[0])
	assert.Len(t, strings.Split(lines[1], "\t"), 17)
	assert.Equal(t, "1\t0.00\t150.00\t80.00\t100.00\t300\t-4\t4\t3\t0\t0\t0\t0\t0\t0\t0\t312.50", lines[2])
	assert.Equal(t, "2\t200.00\t300.00\t95.50\t115.50\t400\t1\t1\t2\t0\t0\t0\t0\t0\t0\t0\t400.90", lines[3])
	assert.Len(t, strings.Split(lines[3], "\t"), 17)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basin.mesh")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteMesh(w, samplePolygons(), 20)
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "NUMELE\t2\n"))

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "basin.mesh"), func(io.Writer) error { return nil })
	require.Error(t, err)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeIO))
}

func attr(r *shp.Reader, row, field int) string {
	return strings.TrimRight(r.ReadAttribute(row, field), "\x00 ")
}

func TestWriteRiverShape(t *testing.T) {
	net, geoms, banks := sampleRiver()
	path := filepath.Join(t.TempDir(), "basin_river.shp")
	require.NoError(t, WriteRiverShape(path, net, geoms, banks))
	assert.FileExists(t, strings.TrimSuffix(path, ".shp")+".dbf")

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 2, r.AttributeCount())
	assert.Equal(t, "1", attr(r, 0, 0))
	assert.Equal(t, "300.00", attr(r, 0, 1))
	assert.Equal(t, "0", attr(r, 0, 3))
	assert.Equal(t, "4", attr(r, 0, 4))
	assert.Equal(t, "1", attr(r, 1, 6))

	n := 0
	for r.Next() {
		_, s := r.Shape()
		line, ok := s.(*shp.PolyLine)
		require.True(t, ok)
		assert.Len(t, line.Points, 2)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestWriteMeshShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basin_mesh.shp")
	require.NoError(t, WriteMeshShape(path, samplePolygons()))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 2, r.AttributeCount())
	assert.Equal(t, "2", attr(r, 1, 0))
	assert.Equal(t, "100.00", attr(r, 1, 1))
	assert.Equal(t, "1", attr(r, 1, 3))

	require.True(t, r.Next())
	_, s := r.Shape()
	poly, ok := s.(*shp.Polygon)
	require.True(t, ok)
	require.Len(t, poly.Points, 5)
	assert.Equal(t, poly.Points[0], poly.Points[4])
	// clockwise: (0,0) is followed by (0,10)
	assert.Equal(t, shp.Point{X: 0, Y: 10}, poly.Points[1])
}
