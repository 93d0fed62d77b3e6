package topology

import (
	"math"

	"gonum.org/v1/gonum/floats"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

// Geometry holds the measured shape of one segment.
type Geometry struct {
	// CenterX, CenterY is the midpoint between the segment start and the
	// start of its downstream segment.
	CenterX, CenterY float64
	Straight         float64
	Real             float64
	Sinuosity        float64
}

// Measure computes the geometry of every segment; the result is indexed by
// segment id and entry 0 (the sentinel) is left zero.
func Measure(ws watershed.Watershed, net *Network) ([]Geometry, error) {
	geoms := make([]Geometry, len(net.Segments))
	for id := 1; id < len(net.Segments); id++ {
		g, err := measure(ws, net, id)
		if err != nil {
			return nil, err
		}
		geoms[id] = g
	}
	return geoms, nil
}

func measure(ws watershed.Watershed, net *Network, id int) (Geometry, error) {
	seg := net.Segments[id]
	down := net.Segments[seg.Down]

	g := Geometry{
		CenterX:  (seg.X + down.X) / 2,
		CenterY:  (seg.Y + down.Y) / 2,
		Straight: math.Hypot(down.X-seg.X, down.Y-seg.Y),
	}

	walked, err := PathLength(ws, seg.StartCell, down.StartCell)
	if err != nil {
		return g, meshErr.Wrap(meshErr.ErrCodeStructural, err, "segment %d", id)
	}
	g.Real = walked

	g.Sinuosity = 1
	if g.Straight > 0 {
		g.Sinuosity = math.Max(1, g.Real/g.Straight)
	}
	return g, nil
}

// PathLength sums the lengths of the cells walked from start along the
// drainage pointers until target, target excluded. target may be
// watershed.Outlet to walk through the outlet cell.
func PathLength(ws watershed.Watershed, start, target int) (float64, error) {
	var lengths []float64
	cur := start
	for cur != target {
		if cur == watershed.Outlet {
			return 0, meshErr.New(meshErr.ErrCodeStructural,
				"walk from cell %d reached the outlet without meeting cell %d", start, target)
		}
		if target != watershed.Outlet && cur > target {
			return 0, meshErr.New(meshErr.ErrCodeStructural,
				"walk from cell %d passed cell %d without meeting it", start, target)
		}
		c := ws.Cell(cur)
		lengths = append(lengths, c.Length)
		cur = c.Down
	}
	return floats.Sum(lengths), nil
}
