package voronoi

import "math"

// BoundingBox is the clipping window. Yt is the smaller Y.
type BoundingBox struct {
	Xl, Xr, Yt, Yb float64
}

// Pad grows the box by d on every side.
func (b BoundingBox) Pad(d float64) BoundingBox {
	return BoundingBox{b.Xl - d, b.Xr + d, b.Yt - d, b.Yb + d}
}

// BoundsOf returns the smallest box holding every vertex.
func BoundsOf(vs []Vertex) BoundingBox {
	if len(vs) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{vs[0].X, vs[0].X, vs[0].Y, vs[0].Y}
	for _, v := range vs[1:] {
		b.Xl = math.Min(b.Xl, v.X)
		b.Xr = math.Max(b.Xr, v.X)
		b.Yt = math.Min(b.Yt, v.Y)
		b.Yb = math.Max(b.Yb, v.Y)
	}
	return b
}

// connectEdge gives a dangling edge its missing endpoints on the box
// border. It returns false when the edge misses the box.
func connectEdge(edge *Edge, bbox BoundingBox) bool {
	vb := edge.Vb.Vertex
	if vb != NO_VERTEX {
		return true
	}

	va := edge.Va.Vertex
	xl := bbox.Xl
	xr := bbox.Xr
	yt := bbox.Yt
	yb := bbox.Yb
	LeftSite := edge.LeftCell.Site
	RightSite := edge.RightCell.Site
	lx := LeftSite.X
	ly := LeftSite.Y
	rx := RightSite.X
	ry := RightSite.Y
	fx := (lx + rx) / 2
	fy := (ly + ry) / 2

	var fm, fb float64

	if !equalWithEpsilon(ry, ly) {
		fm = (lx - rx) / (ry - ly)
		fb = fy - fm*fx
	}

	if equalWithEpsilon(ry, ly) {
		// doesn't intersect with viewport
		if fx < xl || fx >= xr {
			return false
		}
		// downward
		if lx > rx {
			if va == NO_VERTEX {
				va = Vertex{fx, yt}
			} else if va.Y >= yb {
				return false
			}
			vb = Vertex{fx, yb}
			// upward
		} else {
			if va == NO_VERTEX {
				va = Vertex{fx, yb}
			} else if va.Y < yt {
				return false
			}
			vb = Vertex{fx, yt}
		}

	} else if fm < -1 || fm > 1 {
		// downward
		if lx > rx {
			if va == NO_VERTEX {
				va = Vertex{(yt - fb) / fm, yt}
			} else if va.Y >= yb {
				return false
			}
			vb = Vertex{(yb - fb) / fm, yb}
			// upward
		} else {
			if va == NO_VERTEX {
				va = Vertex{(yb - fb) / fm, yb}
			} else if va.Y < yt {
				return false
			}
			vb = Vertex{(yt - fb) / fm, yt}
		}

	} else {
		// rightward
		if ly < ry {
			if va == NO_VERTEX {
				va = Vertex{xl, fm*xl + fb}
			} else if va.X >= xr {
				return false
			}
			vb = Vertex{xr, fm*xr + fb}
			// leftward
		} else {
			if va == NO_VERTEX {
				va = Vertex{xr, fm*xr + fb}
			} else if va.X < xl {
				return false
			}
			vb = Vertex{xl, fm*xl + fb}
		}
	}
	edge.Va.Vertex = va
	edge.Vb.Vertex = vb
	return true
}

// clipEdge trims a finite edge to the box (Liang-Barsky). It returns false
// when nothing is left.
func clipEdge(edge *Edge, bbox BoundingBox) bool {
	ax := edge.Va.X
	ay := edge.Va.Y
	bx := edge.Vb.X
	by := edge.Vb.Y
	t0 := float64(0)
	t1 := float64(1)
	dx := bx - ax
	dy := by - ay

	// left
	q := ax - bbox.Xl
	if dx == 0 && q < 0 {
		return false
	}
	r := -q / dx
	if dx < 0 {
		if r < t0 {
			return false
		} else if r < t1 {
			t1 = r
		}
	} else if dx > 0 {
		if r > t1 {
			return false
		} else if r > t0 {
			t0 = r
		}
	}
	// right
	q = bbox.Xr - ax
	if dx == 0 && q < 0 {
		return false
	}
	r = q / dx
	if dx < 0 {
		if r > t1 {
			return false
		} else if r > t0 {
			t0 = r
		}
	} else if dx > 0 {
		if r < t0 {
			return false
		} else if r < t1 {
			t1 = r
		}
	}

	// top
	q = ay - bbox.Yt
	if dy == 0 && q < 0 {
		return false
	}
	r = -q / dy
	if dy < 0 {
		if r < t0 {
			return false
		} else if r < t1 {
			t1 = r
		}
	} else if dy > 0 {
		if r > t1 {
			return false
		} else if r > t0 {
			t0 = r
		}
	}
	// bottom
	q = bbox.Yb - ay
	if dy == 0 && q < 0 {
		return false
	}
	r = q / dy
	if dy < 0 {
		if r > t1 {
			return false
		} else if r > t0 {
			t0 = r
		}
	} else if dy > 0 {
		if r < t0 {
			return false
		} else if r < t1 {
			t1 = r
		}
	}

	if t0 > 0 {
		edge.Va.Vertex = Vertex{ax + t0*dx, ay + t0*dy}
	}

	if t1 < 1 {
		edge.Vb.Vertex = Vertex{ax + t1*dx, ay + t1*dy}
	}

	return true
}

func equalWithEpsilon(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func lessThanWithEpsilon(a, b float64) bool {
	return b-a > 1e-9
}

func greaterThanWithEpsilon(a, b float64) bool {
	return a-b > 1e-9
}

// clipEdges connects and clips every edge, dropping the ones outside the box.
func (s *Voronoi) clipEdges(bbox BoundingBox) {
	for i := len(s.edges) - 1; i >= 0; i-- {
		edge := s.edges[i]

		if !connectEdge(edge, bbox) || !clipEdge(edge, bbox) || (math.Abs(edge.Va.X-edge.Vb.X) < 1e-9 && math.Abs(edge.Va.Y-edge.Vb.Y) < 1e-9) {
			edge.Va.Vertex = NO_VERTEX
			edge.Vb.Vertex = NO_VERTEX
			s.edges[i] = s.edges[len(s.edges)-1]
			s.edges = s.edges[0 : len(s.edges)-1]
		}
	}
}

// closeCells adds border edges so that every cell touching the box becomes
// a closed polygon.
func (s *Voronoi) closeCells(bbox BoundingBox) {
	xl := bbox.Xl
	xr := bbox.Xr
	yt := bbox.Yt
	yb := bbox.Yb
	for _, cell := range s.cells {
		if cell.prepare() == 0 {
			continue
		}

		halfedges := cell.Halfedges
		nHalfedges := len(halfedges)

		iLeft := 0
		for iLeft < nHalfedges {
			iRight := (iLeft + 1) % nHalfedges
			endpoint := halfedges[iLeft].GetEndpoint()
			startpoint := halfedges[iRight].GetStartpoint()
			if math.Abs(endpoint.X-startpoint.X) >= 1e-9 || math.Abs(endpoint.Y-startpoint.Y) >= 1e-9 {
				va := endpoint
				vb := endpoint
				if equalWithEpsilon(endpoint.X, xl) && lessThanWithEpsilon(endpoint.Y, yb) {
					if equalWithEpsilon(startpoint.X, xl) {
						vb = Vertex{xl, startpoint.Y}
					} else {
						vb = Vertex{xl, yb}
					}

					// walk rightward along bottom side
				} else if equalWithEpsilon(endpoint.Y, yb) && lessThanWithEpsilon(endpoint.X, xr) {
					if equalWithEpsilon(startpoint.Y, yb) {
						vb = Vertex{startpoint.X, yb}
					} else {
						vb = Vertex{xr, yb}
					}
					// walk upward along right side
				} else if equalWithEpsilon(endpoint.X, xr) && greaterThanWithEpsilon(endpoint.Y, yt) {
					if equalWithEpsilon(startpoint.X, xr) {
						vb = Vertex{xr, startpoint.Y}
					} else {
						vb = Vertex{xr, yt}
					}
					// walk leftward along top side
				} else if equalWithEpsilon(endpoint.Y, yt) && greaterThanWithEpsilon(endpoint.X, xl) {
					if equalWithEpsilon(startpoint.Y, yt) {
						vb = Vertex{startpoint.X, yt}
					} else {
						vb = Vertex{xl, yt}
					}
				}

				edge := s.createBorderEdge(cell, va, vb)
				cell.Halfedges = append(cell.Halfedges, nil)
				halfedges = cell.Halfedges
				nHalfedges = len(halfedges)

				copy(halfedges[iLeft+2:], halfedges[iLeft+1:len(halfedges)-1])
				halfedges[iLeft+1] = newHalfedge(edge, cell, nil)

			}
			iLeft++
		}
	}
}
