package voronoi

import "math"

// BeachSection is one parabolic arc of the beachline.
type BeachSection struct {
	node        *rbtNode
	site        Vertex
	circleEvent *circleEvent
	edge        *Edge
}

func (s *BeachSection) bindToNode(node *rbtNode) {
	s.node = node
}

func (s *BeachSection) Node() *rbtNode {
	return s.node
}

type BeachSectionPtrs []*BeachSection

func (s *BeachSectionPtrs) appendLeft(b *BeachSection) {
	*s = append(*s, b)
	for id := len(*s) - 1; id > 0; id-- {
		(*s)[id] = (*s)[id-1]
	}
	(*s)[0] = b
}

func (s *BeachSectionPtrs) appendRight(b *BeachSection) {
	*s = append(*s, b)
}

// leftBreakPoint is the x of the intersection between arc and its left
// neighbour for the given sweep line.
func leftBreakPoint(arc *BeachSection, directrix float64) float64 {
	site := arc.site
	rfocx := site.X
	rfocy := site.Y
	pby2 := rfocy - directrix
	if pby2 == 0 {
		return rfocx
	}

	lArc := arc.Node().previous
	if lArc == nil {
		return math.Inf(-1)
	}
	site = lArc.value.(*BeachSection).site
	lfocx := site.X
	lfocy := site.Y
	plby2 := lfocy - directrix
	if plby2 == 0 {
		return lfocx
	}
	hl := lfocx - rfocx
	aby2 := 1/pby2 - 1/plby2
	b := hl / plby2
	if aby2 != 0 {
		return (-b+math.Sqrt(b*b-2*aby2*(hl*hl/(-2*plby2)-lfocy+plby2/2+rfocy-pby2/2)))/aby2 + rfocx
	}
	return (rfocx + lfocx) / 2
}

func rightBreakPoint(arc *BeachSection, directrix float64) float64 {
	rArc := arc.Node().next
	if rArc != nil {
		return leftBreakPoint(rArc.value.(*BeachSection), directrix)
	}
	site := arc.site
	if site.Y == directrix {
		return site.X
	}
	return math.Inf(1)
}
