// Package meshpoints generates the seeds of the tessellation: bank points
// along the river, samples of the basin grid and boundary rings around it.
package meshpoints

import (
	"slices"

	"github.com/dhconnelly/rtreego"
)

// Category tags the origin of a seed. The numeric values are written to the
// outputs and compared: anything below Boundary is an interior seed.
type Category int

const (
	River Category = iota + 1
	Grid
	Boundary
)

func (c Category) String() string {
	switch c {
	case River:
		return "river"
	case Grid:
		return "grid"
	case Boundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Point is one tessellation seed.
type Point struct {
	X, Y     float64
	Category Category
	// Origin is the segment id of a river point, the ring index of a
	// boundary point and -1 for a grid sample.
	Origin int
}

// indexed stores a point in an rtree together with its position.
type indexed struct {
	Point
	pos int
}

func (p *indexed) Bounds() rtreego.Rect {
	return rtreego.Point{p.X, p.Y}.ToRect(0)
}

// newIndex builds an rtree over points, inserted in slice order.
func newIndex(points []Point) *rtreego.Rtree {
	objs := make([]rtreego.Spatial, len(points))
	for i, p := range points {
		objs[i] = &indexed{Point: p, pos: i}
	}
	return rtreego.NewTree(2, 25, 50, objs...)
}

// within returns the positions of the indexed points closer than radius to
// (x, y), in ascending order.
func within(tree *rtreego.Rtree, x, y, radius float64) []int {
	var out []int
	for _, hit := range tree.SearchIntersect(rtreego.Point{x, y}.ToRect(radius)) {
		p := hit.(*indexed)
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy < radius*radius {
			out = append(out, p.pos)
		}
	}
	slices.Sort(out)
	return out
}
