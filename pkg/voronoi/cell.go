package voronoi

import (
	"math"
	"sort"
)

// Cell is the Voronoi region of one site.
type Cell struct {
	Site Vertex
	// Index is the position of the site in the input slice.
	Index     int
	Halfedges []*Halfedge

	bounded bool
}

func newCell(site Vertex, index int) *Cell {
	return &Cell{Site: site, Index: index}
}

// prepare drops halfedges with an endpoint at infinity and sorts the rest
// by angle. It returns the number of halfedges kept.
func (t *Cell) prepare() int {
	halfedges := t.Halfedges
	iHalfedge := len(halfedges) - 1

	for ; iHalfedge >= 0; iHalfedge-- {
		edge := halfedges[iHalfedge].Edge

		if edge.Vb.Vertex == NO_VERTEX || edge.Va.Vertex == NO_VERTEX {
			halfedges[iHalfedge] = halfedges[len(halfedges)-1]
			halfedges = halfedges[:len(halfedges)-1]
		}
	}

	sort.Sort(halfedgesByAngle{halfedges})
	t.Halfedges = halfedges
	return len(halfedges)
}

// markBounded records whether the cell is closed in the unclipped diagram:
// at least three halfedges, all with finite endpoints.
func (t *Cell) markBounded() {
	t.bounded = len(t.Halfedges) >= 3
	for _, h := range t.Halfedges {
		if !h.Edge.Finite() {
			t.bounded = false
			return
		}
	}
}

// Bounded reports whether the cell is a closed polygon before any clipping.
func (t *Cell) Bounded() bool {
	return t.bounded
}

// Ring returns the polygon vertices in halfedge order, collapsing
// consecutive vertices closer than eps on both axes. Cocircular sites make
// zero-length edges, which this removes.
func (t *Cell) Ring(eps float64) []Vertex {
	ring := make([]Vertex, 0, len(t.Halfedges))
	for _, h := range t.Halfedges {
		v := h.GetStartpoint()
		if v == NO_VERTEX {
			continue
		}
		if n := len(ring); n > 0 && near(ring[n-1], v, eps) {
			continue
		}
		ring = append(ring, v)
	}
	for len(ring) > 1 && near(ring[0], ring[len(ring)-1], eps) {
		ring = ring[:len(ring)-1]
	}
	return ring
}

func near(a, b Vertex, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}
