package export

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
)

var riverFields = []shp.Field{
	shp.NumberField("segment", 10),
	shp.FloatField("long_m", 16, 2),
	shp.FloatField("z_m", 16, 2),
	shp.NumberField("down", 10),
	shp.NumberField("left", 10),
	shp.NumberField("right", 10),
	shp.NumberField("horder", 4),
}

var meshFields = []shp.Field{
	shp.NumberField("polygon", 10),
	shp.FloatField("area_m2", 18, 2),
	shp.FloatField("z_m", 16, 2),
	shp.NumberField("nfaces", 4),
}

// WriteRiverShape writes one line per segment, from its start to the start
// of its downstream segment.
func WriteRiverShape(path string, net *topology.Network, geoms []topology.Geometry, banks []mesh.Bank) error {
	w, err := createShape(path, shp.POLYLINE, riverFields)
	if err != nil {
		return err
	}

	row := 0
	for id := 1; id < len(net.Segments); id++ {
		seg := net.Segments[id]
		down := net.Segments[seg.Down]
		line := shp.NewPolyLine([][]shp.Point{{{X: seg.X, Y: seg.Y}, {X: down.X, Y: down.Y}}})
		w.Write(line)

		var left, right int
		if id < len(banks) {
			left, right = banks[id].Left, banks[id].Right
		}
		values := []any{seg.ID, geoms[id].Straight, seg.ZMax, seg.Down, left, right, seg.Order}
		if err := writeRow(w, row, values); err != nil {
			w.Close()
			return meshErr.Wrap(meshErr.ErrCodeIO, err, "write %s", path)
		}
		row++
	}
	return closeShape(w, path)
}

// WriteMeshShape writes one polygon per mesh element.
func WriteMeshShape(path string, polygons []mesh.Polygon) error {
	w, err := createShape(path, shp.POLYGON, meshFields)
	if err != nil {
		return err
	}

	for row, p := range polygons {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{shapeRing(p.Ring)}))
		w.Write(&poly)
		values := []any{p.ID, p.Area, p.Elevation, len(p.Neighbors)}
		if err := writeRow(w, row, values); err != nil {
			w.Close()
			return meshErr.Wrap(meshErr.ErrCodeIO, err, "write %s", path)
		}
	}
	return closeShape(w, path)
}

// shapeRing closes the ring and orients it clockwise, as outer rings are
// stored in shapefiles.
func shapeRing(ring []voronoi.Vertex) []shp.Point {
	if len(ring) == 0 {
		return nil
	}
	var signed float64
	for i := range ring {
		j := (i + 1) % len(ring)
		signed += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}

	pts := make([]shp.Point, 0, len(ring)+1)
	for i := range ring {
		v := ring[i]
		if signed > 0 {
			v = ring[(len(ring)-i)%len(ring)]
		}
		pts = append(pts, shp.Point{X: v.X, Y: v.Y})
	}
	return append(pts, pts[0])
}

func createShape(path string, t shp.ShapeType, fields []shp.Field) (*shp.Writer, error) {
	w, err := shp.Create(path, t)
	if err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "create %s", path)
	}
	if err := w.SetFields(fields); err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "create %s", path)
	}
	return w, nil
}

func writeRow(w *shp.Writer, row int, values []any) error {
	for field, v := range values {
		if err := w.WriteAttribute(row, field, v); err != nil {
			return err
		}
	}
	return nil
}

// closeShape flushes the headers. go-shp creates the attribute table as
// "<base>dbf"; it is moved to "<base>.dbf" next to the .shp.
func closeShape(w *shp.Writer, path string) error {
	w.Close()
	base := strings.TrimSuffix(path, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return meshErr.Wrap(meshErr.ErrCodeIO, err, "rename attribute table of %s", path)
	}
	return nil
}
