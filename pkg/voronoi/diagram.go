package voronoi

import (
	"sort"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/logger"
)

// Diagram is the result of a sweep.
type Diagram struct {
	// Cells in sweep order.
	Cells []*Cell
	Edges []*Edge
	// Duplicates counts input sites dropped for repeating an earlier site.
	Duplicates int

	byIndex []*Cell
}

// CellOf returns the cell of the i-th input site, or nil when that site
// was a duplicate.
func (d *Diagram) CellOf(i int) *Cell {
	return d.byIndex[i]
}

// Options configures Compute.
type Options struct {
	// BBox clips edges to a window. Nil keeps the raw diagram, where cells on
	// the convex hull stay open.
	BBox *BoundingBox
	// CloseCells closes clipped cells along BBox.
	CloseCells bool
	Logger     *logger.ZapLogger
}

// Compute runs Fortune's sweep over sites. The input slice is not modified.
func Compute(sites []Vertex, opts Options) *Diagram {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	v := &Voronoi{
		cellsMap: make(map[Vertex]*Cell, len(sites)),
		Logger:   log,
	}
	d := &Diagram{byIndex: make([]*Cell, len(sites))}

	// sweep order, remembering each site's input position
	order := make([]int, len(sites))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lessYX(sites[order[a]], sites[order[b]])
	})

	log.Debug("[sweep] sweep started", zap.Int("sites", len(sites)))

	next := 0
	var prev Vertex
	havePrev := false
	var circle *circleEvent
	for {
		circle = v.firstCircleEvent

		var site *Vertex
		if next < len(order) {
			site = &sites[order[next]]
		}

		// site event when it comes before the next circle event
		if site != nil && (circle == nil || site.Y < circle.y || (site.Y == circle.y && site.X < circle.x)) {
			if !havePrev || *site != prev {
				cell := newCell(*site, order[next])
				v.cells = append(v.cells, cell)
				v.cellsMap[*site] = cell
				d.byIndex[order[next]] = cell
				v.addBeachSection(*site)
				prev, havePrev = *site, true
			} else {
				d.Duplicates++
				log.Debug("[sweep] duplicate site dropped", zap.Float64("x", site.X), zap.Float64("y", site.Y))
			}
			next++
		} else if circle != nil {
			v.removeBeachSection(circle.arc)
		} else {
			break
		}
	}

	for _, cell := range v.cells {
		cell.markBounded()
	}

	if opts.BBox != nil {
		v.clipEdges(*opts.BBox)
		if opts.CloseCells {
			v.closeCells(*opts.BBox)
		}
	}
	if opts.BBox == nil || !opts.CloseCells {
		for _, cell := range v.cells {
			cell.prepare()
		}
	}

	log.Debug("[sweep] sweep finished", zap.Int("cells", len(v.cells)), zap.Int("edges", len(v.edges)))

	d.Cells = v.cells
	d.Edges = v.edges
	return d
}

// CreateDiagram computes the diagram clipped to bbox, optionally closing
// the cells along it.
func CreateDiagram(sites []Vertex, bbox BoundingBox, closeCells bool, log *logger.ZapLogger) *Diagram {
	return Compute(sites, Options{BBox: &bbox, CloseCells: closeCells, Logger: log})
}
