// Package export writes the mesh and river element files read by the
// simulator, and the optional shapefile layers.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
)

// OutletDown is written as the downstream of segments draining into the
// outlet.
const OutletDown = -4

const riverHeader = "INDEX\tX\tY\tZMIN\tZMAX\tLENGTH\tDOWN\tLEFT\tRIGHT\tSHAPE\tMATRL\tBC\tRES\tXAREA\tINACT\tLAKE\tLRIV\n"

// WriteMesh writes the polygon table followed by the neighbour table. Zmin
// is the polygon elevation minus depth.
func WriteMesh(w io.Writer, polygons []mesh.Polygon, depth float64) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "NUMELE\t%d\n", len(polygons))
	fmt.Fprint(bw, "INDEX   X   Y   Zmin    Zmax    Area    nFaces\n")
	for _, p := range polygons {
		fmt.Fprintf(bw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
			p.ID, p.Center.X, p.Center.Y, p.Elevation-depth, p.Elevation, p.Area, len(p.Neighbors))
	}

	fmt.Fprint(bw, "\n")
	fmt.Fprint(bw, "INDEX   ID_Neighbors    Lenght_Face_Neighbors   Distance_to_Neighbors\n")
	for _, p := range polygons {
		fmt.Fprintf(bw, "%d ", p.ID)
		for _, n := range p.Neighbors {
			id := 0
			if n.Interior {
				id = n.PolygonID
			}
			fmt.Fprintf(bw, "%d ", id)
		}
		for _, n := range p.Neighbors {
			fmt.Fprintf(bw, "%.2f ", n.FaceLength)
		}
		for _, n := range p.Neighbors {
			fmt.Fprintf(bw, "%.2f ", n.Distance)
		}
		fmt.Fprint(bw, "\n")
	}
	return bw.Flush()
}

// WriteRiver writes one line per segment, the outlet sentinel excluded.
// geoms and banks are indexed by segment id.
func WriteRiver(w io.Writer, net *topology.Network, geoms []topology.Geometry, banks []mesh.Bank) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "NUMRIV\t%d\n", net.Len())
	fmt.Fprint(bw, riverHeader)
	for id := 1; id < len(net.Segments); id++ {
		seg := net.Segments[id]
		g := geoms[id]
		down := seg.Down
		if down == 0 {
			down = OutletDown
		}
		var left, right int
		if id < len(banks) {
			left, right = banks[id].Left, banks[id].Right
		}

		fmt.Fprintf(bw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%d\t%d\t%d\t",
			seg.ID, g.CenterX, g.CenterY, seg.ZMin, seg.ZMax, int(g.Straight), down, left, right)
		// SHAPE MATRL BC RES XAREA INACT LAKE
		for i := 0; i < 7; i++ {
			fmt.Fprint(bw, "0\t")
		}
		fmt.Fprintf(bw, "%.2f\n", g.Real)
	}
	return bw.Flush()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return meshErr.Wrap(meshErr.ErrCodeIO, err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return meshErr.Wrap(meshErr.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return meshErr.Wrap(meshErr.ErrCodeIO, err, "close %s", path)
	}
	return nil
}
