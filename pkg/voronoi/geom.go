package voronoi

import (
	"math"
)

type Vertex struct {
	X float64
	Y float64
}

// NO_VERTEX marks an endpoint at infinity.
var NO_VERTEX = Vertex{math.Inf(1), math.Inf(1)}

// lessYX orders sites the way the sweep consumes them: by Y, ties by X.
func lessYX(a, b Vertex) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

type EdgeVertex struct {
	Vertex
}

// Edge separates LeftCell and RightCell. RightCell is nil for border edges
// added when cells are closed against a bounding box.
type Edge struct {
	LeftCell  *Cell
	RightCell *Cell
	Va        EdgeVertex
	Vb        EdgeVertex
}

func newEdge(LeftCell, RightCell *Cell) *Edge {
	return &Edge{
		LeftCell:  LeftCell,
		RightCell: RightCell,
		Va:        EdgeVertex{NO_VERTEX},
		Vb:        EdgeVertex{NO_VERTEX},
	}
}

// Finite reports whether both endpoints are known.
func (e *Edge) Finite() bool {
	return e.Va.Vertex != NO_VERTEX && e.Vb.Vertex != NO_VERTEX
}

// Length is the Euclidean length of a finite edge, +Inf otherwise.
func (e *Edge) Length() float64 {
	if !e.Finite() {
		return math.Inf(1)
	}
	return math.Hypot(e.Vb.X-e.Va.X, e.Vb.Y-e.Va.Y)
}

// GetOtherCell returns the cell on the other side of the edge, or nil.
func (e *Edge) GetOtherCell(cell *Cell) *Cell {
	if cell == e.LeftCell {
		return e.RightCell
	}
	if cell == e.RightCell {
		return e.LeftCell
	}
	return nil
}

type Halfedge struct {
	Cell  *Cell
	Edge  *Edge
	Angle float64
}

type halfedges []*Halfedge

func (s halfedges) Len() int      { return len(s) }
func (s halfedges) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

type halfedgesByAngle struct{ halfedges }

func (s halfedgesByAngle) Less(i, j int) bool { return s.halfedges[i].Angle > s.halfedges[j].Angle }

func newHalfedge(edge *Edge, LeftCell, RightCell *Cell) *Halfedge {
	ret := &Halfedge{
		Cell: LeftCell,
		Edge: edge,
	}

	// The angle of a border edge comes from its direction, every other edge
	// uses the perpendicular between the two sites.
	if RightCell != nil {
		ret.Angle = math.Atan2(RightCell.Site.Y-LeftCell.Site.Y, RightCell.Site.X-LeftCell.Site.X)
	} else {
		va := edge.Va
		vb := edge.Vb

		if edge.LeftCell == LeftCell {
			ret.Angle = math.Atan2(vb.X-va.X, va.Y-vb.Y)
		} else {
			ret.Angle = math.Atan2(va.X-vb.X, vb.Y-va.Y)
		}
	}
	return ret
}

func (h *Halfedge) GetStartpoint() Vertex {
	if h.Edge.LeftCell == h.Cell {
		return h.Edge.Va.Vertex
	}
	return h.Edge.Vb.Vertex
}

func (h *Halfedge) GetEndpoint() Vertex {
	if h.Edge.LeftCell == h.Cell {
		return h.Edge.Vb.Vertex
	}
	return h.Edge.Va.Vertex
}
