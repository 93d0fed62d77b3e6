package voronoi

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/logger"
)

// Voronoi holds the sweep state.
type Voronoi struct {
	cells []*Cell
	edges []*Edge

	// cell lookup by site, used while the beachline changes
	cellsMap map[Vertex]*Cell

	// beachline of parabolic arcs, ordered by x
	beachline rbt
	// pending circle events, ordered by (y, x)
	circleEvents rbt
	// next circle event to handle
	firstCircleEvent *circleEvent

	Logger *logger.ZapLogger
}

func (s *Voronoi) cell(site Vertex) *Cell {
	ret := s.cellsMap[site]
	if ret == nil {
		panic(fmt.Sprintf("voronoi: no cell for site %v", site))
	}
	return ret
}

func (s *Voronoi) createEdge(LeftCell, RightCell *Cell, va, vb Vertex) *Edge {
	edge := newEdge(LeftCell, RightCell)
	s.edges = append(s.edges, edge)
	if va != NO_VERTEX {
		s.setEdgeStartpoint(edge, LeftCell, RightCell, va)
	}

	if vb != NO_VERTEX {
		s.setEdgeEndpoint(edge, LeftCell, RightCell, vb)
	}

	LeftCell.Halfedges = append(LeftCell.Halfedges, newHalfedge(edge, LeftCell, RightCell))
	RightCell.Halfedges = append(RightCell.Halfedges, newHalfedge(edge, RightCell, LeftCell))
	return edge
}

func (s *Voronoi) createBorderEdge(LeftCell *Cell, va, vb Vertex) *Edge {
	edge := newEdge(LeftCell, nil)
	edge.Va.Vertex = va
	edge.Vb.Vertex = vb

	s.edges = append(s.edges, edge)
	return edge
}

func (s *Voronoi) setEdgeStartpoint(edge *Edge, LeftCell, RightCell *Cell, vertex Vertex) {
	if edge.Va.Vertex == NO_VERTEX && edge.Vb.Vertex == NO_VERTEX {
		edge.Va.Vertex = vertex
		edge.LeftCell = LeftCell
		edge.RightCell = RightCell
	} else if edge.LeftCell == RightCell {
		edge.Vb.Vertex = vertex
	} else {
		edge.Va.Vertex = vertex
	}
}

func (s *Voronoi) setEdgeEndpoint(edge *Edge, LeftCell, RightCell *Cell, vertex Vertex) {
	s.setEdgeStartpoint(edge, RightCell, LeftCell, vertex)
}

func (s *Voronoi) detachBeachSection(arc *BeachSection) {
	s.detachCircleEvent(arc)
	s.beachline.removeNode(arc.node)
}

// removeBeachSection handles a circle event: the arc collapses into a
// Voronoi vertex, together with any neighbour collapsing at the same point.
func (s *Voronoi) removeBeachSection(bs *BeachSection) {
	circle := bs.circleEvent
	x := circle.x
	y := circle.ycenter
	vertex := Vertex{x, y}
	previous := bs.node.previous
	next := bs.node.next
	disappearingTransitions := BeachSectionPtrs{bs}

	s.detachBeachSection(bs)

	lArc := previous.value.(*BeachSection)
	for lArc.circleEvent != nil &&
		math.Abs(x-lArc.circleEvent.x) < 1e-9 &&
		math.Abs(y-lArc.circleEvent.ycenter) < 1e-9 {

		previous = lArc.node.previous
		disappearingTransitions.appendLeft(lArc)
		s.detachBeachSection(lArc)
		lArc = previous.value.(*BeachSection)
	}

	disappearingTransitions.appendLeft(lArc)
	s.detachCircleEvent(lArc)

	rArc := next.value.(*BeachSection)
	for rArc.circleEvent != nil &&
		math.Abs(x-rArc.circleEvent.x) < 1e-9 &&
		math.Abs(y-rArc.circleEvent.ycenter) < 1e-9 {

		next = rArc.node.next
		disappearingTransitions.appendRight(rArc)
		s.detachBeachSection(rArc)
		rArc = next.value.(*BeachSection)
	}

	disappearingTransitions.appendRight(rArc)
	s.detachCircleEvent(rArc)

	nArcs := len(disappearingTransitions)
	for iArc := 1; iArc < nArcs; iArc++ {
		rArc = disappearingTransitions[iArc]
		lArc = disappearingTransitions[iArc-1]
		s.setEdgeStartpoint(rArc.edge, s.cell(lArc.site), s.cell(rArc.site), vertex)
	}

	lArc = disappearingTransitions[0]
	rArc = disappearingTransitions[nArcs-1]
	rArc.edge = s.createEdge(s.cell(lArc.site), s.cell(rArc.site), NO_VERTEX, vertex)

	s.attachCircleEvent(lArc)
	s.attachCircleEvent(rArc)
}

// addBeachSection handles a site event: a new arc splits the arc above it
// or lands between two arcs.
func (s *Voronoi) addBeachSection(site Vertex) {
	x := site.X
	directrix := site.Y

	// lNode and rNode end up as the arcs left and right of the new one.
	var lNode, rNode *rbtNode
	var dxl, dxr float64
	node := s.beachline.root

	for node != nil {
		nodeBeachline := node.value.(*BeachSection)
		dxl = leftBreakPoint(nodeBeachline, directrix) - x
		if dxl > 1e-9 {
			node = node.left
		} else {
			dxr = x - rightBreakPoint(nodeBeachline, directrix)
			if dxr > 1e-9 {
				if node.right == nil {
					lNode = node
					break
				}
				node = node.right
			} else {
				if dxl > -1e-9 {
					lNode = node.previous
					rNode = node
				} else if dxr > -1e-9 {
					lNode = node
					rNode = node.next
				} else {
					lNode = node
					rNode = node
				}
				break
			}
		}
	}

	var lArc, rArc *BeachSection
	if lNode != nil {
		lArc = lNode.value.(*BeachSection)
	}
	if rNode != nil {
		rArc = rNode.value.(*BeachSection)
	}

	newArc := &BeachSection{site: site}
	if lArc == nil {
		s.beachline.insertSuccessor(nil, newArc)
	} else {
		s.beachline.insertSuccessor(lArc.node, newArc)
	}

	// first arc of the beachline
	if lArc == nil && rArc == nil {
		return
	}

	// the new arc splits an existing one
	if lArc == rArc {
		s.detachCircleEvent(lArc)

		rArc = &BeachSection{site: lArc.site}
		s.beachline.insertSuccessor(newArc.node, rArc)

		newArc.edge = s.createEdge(s.cell(lArc.site), s.cell(newArc.site), NO_VERTEX, NO_VERTEX)
		rArc.edge = newArc.edge

		s.attachCircleEvent(lArc)
		s.attachCircleEvent(rArc)
		return
	}

	// the new arc is the rightmost one; happens when sites share the first Y
	if lArc != nil && rArc == nil {
		newArc.edge = s.createEdge(s.cell(lArc.site), s.cell(newArc.site), NO_VERTEX, NO_VERTEX)
		return
	}

	// the new arc lands exactly on a breakpoint: that breakpoint becomes a vertex
	if lArc != rArc {
		s.detachCircleEvent(lArc)
		s.detachCircleEvent(rArc)

		leftSite := lArc.site
		ax := leftSite.X
		ay := leftSite.Y
		bx := site.X - ax
		by := site.Y - ay
		rightSite := rArc.site
		cx := rightSite.X - ax
		cy := rightSite.Y - ay
		d := 2 * (bx*cy - by*cx)
		hb := bx*bx + by*by
		hc := cx*cx + cy*cy
		vertex := Vertex{(cy*hb-by*hc)/d + ax, (bx*hc-cx*hb)/d + ay}

		lCell := s.cell(leftSite)
		cell := s.cell(site)
		rCell := s.cell(rightSite)

		s.setEdgeStartpoint(rArc.edge, lCell, rCell, vertex)

		newArc.edge = s.createEdge(lCell, cell, NO_VERTEX, vertex)
		rArc.edge = s.createEdge(cell, rCell, NO_VERTEX, vertex)

		s.attachCircleEvent(lArc)
		s.attachCircleEvent(rArc)
		s.Logger.Debug("[sweep] arc landed on a breakpoint", zap.Float64("x", vertex.X), zap.Float64("y", vertex.Y))
	}
}

type circleEvent struct {
	node    *rbtNode
	site    Vertex
	arc     *BeachSection
	x       float64
	y       float64
	ycenter float64
}

func (s *circleEvent) bindToNode(node *rbtNode) {
	s.node = node
}

func (s *circleEvent) Node() *rbtNode {
	return s.node
}

// attachCircleEvent schedules the collapse of arc if its neighbours converge.
func (s *Voronoi) attachCircleEvent(arc *BeachSection) {
	lArc := arc.node.previous
	rArc := arc.node.next
	if lArc == nil || rArc == nil {
		return
	}
	leftSite := lArc.value.(*BeachSection).site
	cSite := arc.site
	rightSite := rArc.value.(*BeachSection).site

	if leftSite == rightSite {
		return
	}

	bx := cSite.X
	by := cSite.Y
	ax := leftSite.X - bx
	ay := leftSite.Y - by
	cx := rightSite.X - bx
	cy := rightSite.Y - by

	// clockwise or collinear: the breakpoints diverge
	d := 2 * (ax*cy - ay*cx)
	if d >= -2e-12 {
		return
	}

	ha := ax*ax + ay*ay
	hc := cx*cx + cy*cy
	x := (cy*ha - ay*hc) / d
	y := (ax*hc - cx*ha) / d
	ycenter := y + by

	event := &circleEvent{
		arc:     arc,
		site:    cSite,
		x:       x + bx,
		y:       ycenter + math.Sqrt(x*x+y*y),
		ycenter: ycenter,
	}

	arc.circleEvent = event

	var predecessor *rbtNode
	node := s.circleEvents.root
	for node != nil {
		nodeValue := node.value.(*circleEvent)
		if event.y < nodeValue.y || (event.y == nodeValue.y && event.x <= nodeValue.x) {
			if node.left != nil {
				node = node.left
			} else {
				predecessor = node.previous
				break
			}
		} else {
			if node.right != nil {
				node = node.right
			} else {
				predecessor = node
				break
			}
		}
	}
	s.circleEvents.insertSuccessor(predecessor, event)
	if predecessor == nil {
		s.firstCircleEvent = event
	}
}

func (s *Voronoi) detachCircleEvent(arc *BeachSection) {
	circle := arc.circleEvent
	if circle != nil {
		if circle.node.previous == nil {
			if circle.node.next != nil {
				s.firstCircleEvent = circle.node.next.value.(*circleEvent)
			} else {
				s.firstCircleEvent = nil
			}
		}
		s.circleEvents.removeNode(circle.node)
		arc.circleEvent = nil
	}
}
