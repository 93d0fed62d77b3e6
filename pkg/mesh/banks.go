package mesh

import (
	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
)

// Bank holds the polygons on each side of a segment. 0 means none.
type Bank struct {
	Segment     int
	Left, Right int
	// OneSided is set when no polygon was found on the far side and Right
	// is simply the second nearest polygon.
	OneSided bool
}

type BankOptions struct {
	// Orient orders the two banks left and right of the flow direction.
	// Without it the two nearest polygons are returned nearest first.
	Orient bool
	Logger *logger.ZapLogger
}

type polygonRef struct {
	id   int
	x, y float64
}

func (p *polygonRef) Bounds() rtreego.Rect {
	return rtreego.Point{p.x, p.y}.ToRect(0)
}

// AssignBanks finds the bank polygons of every segment around its center.
// The result is indexed by segment id; entry 0 is left empty.
func AssignBanks(net *topology.Network, geoms []topology.Geometry, polygons []Polygon, opts BankOptions) []Bank {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	objs := make([]rtreego.Spatial, len(polygons))
	for i, p := range polygons {
		objs[i] = &polygonRef{id: p.ID, x: p.Center.X, y: p.Center.Y}
	}
	tree := rtreego.NewTree(2, 25, 50, objs...)

	banks := make([]Bank, len(net.Segments))
	oneSided := 0
	for id := 1; id < len(net.Segments); id++ {
		seg := net.Segments[id]
		down := net.Segments[seg.Down]
		g := geoms[id]
		at := rtreego.Point{g.CenterX, g.CenterY}

		b := Bank{Segment: id}
		nearest := tree.NearestNeighbors(2, at)
		if len(nearest) == 0 {
			banks[id] = b
			continue
		}
		first := nearest[0].(*polygonRef)
		b.Left = first.id
		if len(nearest) > 1 {
			b.Right = nearest[1].(*polygonRef).id
		}

		dx, dy := down.X-seg.X, down.Y-seg.Y
		if !opts.Orient || (dx == 0 && dy == 0) {
			banks[id] = b
			continue
		}

		side := func(p *polygonRef) float64 {
			return dx*(p.y-g.CenterY) - dy*(p.x-g.CenterX)
		}
		s1 := side(first)
		opposite := tree.NearestNeighbors(1, at, func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
			p := obj.(*polygonRef)
			if p == first {
				return true, false
			}
			if s1 == 0 {
				return side(p) == 0, false
			}
			return side(p)*s1 >= 0, false
		})

		second := first
		if len(opposite) == 1 {
			second = opposite[0].(*polygonRef)
		} else if len(nearest) > 1 {
			second = nearest[1].(*polygonRef)
			b.OneSided = true
		}

		switch {
		case second == first:
			b.Left, b.Right = first.id, 0
		case side(first) > side(second):
			b.Left, b.Right = first.id, second.id
		default:
			b.Left, b.Right = second.id, first.id
		}
		if b.OneSided {
			oneSided++
			log.Debug("[banks] no polygon on the far side", zap.Int("segment", id))
		}
		banks[id] = b
	}

	if oneSided > 0 {
		log.Warn("[banks] one-sided banks", zap.Int("segments", oneSided))
	}
	log.Info("[banks] banks assigned", zap.Int("segments", len(net.Segments)-1), zap.Bool("oriented", opts.Orient))
	return banks
}
