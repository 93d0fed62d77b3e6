package meshpoints

import (
	"math"
	"sort"

	"go.uber.org/zap"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
)

type RiverOptions struct {
	// Distance from the segment center to each bank point.
	Distance float64
	// Clean enables spacing pruning with MinSpacing as radius.
	Clean      bool
	MinSpacing float64
	Logger     *logger.ZapLogger
}

type RiverResult struct {
	// Points in priority order, the outlet anchor first.
	Points []Point
	Pruned int
	// Degenerate lists the segments skipped for a zero-length direction.
	Degenerate []int
}

// RiverPoints places two points per segment, on the left and on the right
// of the flow direction at Distance from the segment center, and prunes
// clusters when Clean is set. geoms is indexed by segment id.
func RiverPoints(net *topology.Network, geoms []topology.Geometry, opts RiverOptions) RiverResult {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var res RiverResult
	var orders []int
	for id := 1; id < len(net.Segments); id++ {
		seg := net.Segments[id]
		down := net.Segments[seg.Down]
		g := geoms[id]

		left, right, err := bankPoints(seg, down, g, opts.Distance)
		if err != nil {
			log.Warn("[points] segment skipped", zap.Int("segment", id), zap.Error(err))
			res.Degenerate = append(res.Degenerate, id)
			continue
		}
		res.Points = append(res.Points, left, right)
		orders = append(orders, seg.Order, seg.Order)
	}

	res.Points = byPriority(res.Points, orders)
	if opts.Clean && len(res.Points) > 0 {
		res.Points, res.Pruned = prune(res.Points, opts.MinSpacing)
	}

	log.Info("[points] river points ready",
		zap.Int("points", len(res.Points)),
		zap.Int("pruned", res.Pruned),
		zap.Int("degenerate", len(res.Degenerate)))
	return res
}

// bankPoints offsets the segment center along the unit normal of the
// start -> downstream start direction. The left normal is (-dy, dx).
func bankPoints(seg, down topology.Segment, g topology.Geometry, distance float64) (Point, Point, error) {
	dx, dy := down.X-seg.X, down.Y-seg.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return Point{}, Point{}, meshErr.New(meshErr.ErrCodeDegenerateGeometry,
			"segment %d starts where segment %d starts", seg.ID, down.ID)
	}
	nx, ny := -dy/l*distance, dx/l*distance
	left := Point{X: g.CenterX + nx, Y: g.CenterY + ny, Category: River, Origin: seg.ID}
	right := Point{X: g.CenterX - nx, Y: g.CenterY - ny, Category: River, Origin: seg.ID}
	return left, right, nil
}

// byPriority orders points by stream order, highest first, keeping the
// generation order among equal orders.
func byPriority(points []Point, orders []int) []Point {
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return orders[idx[a]] > orders[idx[b]]
	})
	out := make([]Point, len(points))
	for i, j := range idx {
		out[i] = points[j]
	}
	return out
}

// prune visits points in order; each kept point suppresses every later
// point closer than minSpacing. The first point is always kept.
func prune(points []Point, minSpacing float64) ([]Point, int) {
	tree := newIndex(points)
	removed := make([]bool, len(points))

	kept := make([]Point, 0, len(points))
	for i, p := range points {
		if removed[i] {
			continue
		}
		kept = append(kept, p)
		for _, j := range within(tree, p.X, p.Y, minSpacing) {
			if j > i {
				removed[j] = true
			}
		}
	}
	return kept, len(points) - len(kept)
}
