package mesh

import (
	"math"
	"sort"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
)

// Face is the edge shared with one neighbouring cell.
type Face struct {
	// Seed is the input index of the neighbour's site.
	Seed int
	A, B voronoi.Vertex
}

func (f Face) Length() float64 {
	return math.Hypot(f.B.X-f.A.X, f.B.Y-f.A.Y)
}

// FaceFunc returns the faces of a cell sorted by neighbour seed.
type FaceFunc func(c *voronoi.Cell) []Face

// Adjacency is a strategy for finding the neighbours of a cell.
type Adjacency interface {
	Name() string
	Faces(d *voronoi.Diagram) FaceFunc
}

// snap is the grid vertices are rounded to before being compared. Shorter
// edges are treated as points.
const snap = 1e-6

// NewAdjacency returns the strategy registered under name.
func NewAdjacency(name string) (Adjacency, error) {
	switch name {
	case "", "ridge":
		return Ridge{}, nil
	case "vertex":
		return VertexSet{}, nil
	default:
		return nil, meshErr.New(meshErr.ErrCodeInvalidConfig, "unknown adjacency strategy %q", name)
	}
}

// Ridge reads neighbours off the edges of the diagram: each finite edge
// of non-zero length separates its two cells.
type Ridge struct{}

func (Ridge) Name() string { return "ridge" }

func (Ridge) Faces(*voronoi.Diagram) FaceFunc {
	return func(c *voronoi.Cell) []Face {
		var faces []Face
		seen := make(map[int]bool, len(c.Halfedges))
		for _, h := range c.Halfedges {
			e := h.Edge
			other := e.GetOtherCell(c)
			if other == nil || !e.Finite() || e.Length() < snap || seen[other.Index] {
				continue
			}
			seen[other.Index] = true
			faces = append(faces, Face{Seed: other.Index, A: e.Va.Vertex, B: e.Vb.Vertex})
		}
		sortFaces(faces)
		return faces
	}
}

// VertexSet compares the vertex sets of every pair of cells: two cells sharing
// exactly two vertices are neighbours. It is quadratic in the number of
// cells and serves as a reference for Ridge.
type VertexSet struct{}

func (VertexSet) Name() string { return "vertex" }

type vertexKey [2]int64

func keyOf(v voronoi.Vertex) vertexKey {
	return vertexKey{int64(math.Round(v.X / snap)), int64(math.Round(v.Y / snap))}
}

func (VertexSet) Faces(d *voronoi.Diagram) FaceFunc {
	// Vertex sets come from the edge list: cells on the hull lose their
	// half-infinite edges once prepared, but not the finite endpoints.
	sets := make(map[*voronoi.Cell]map[vertexKey]voronoi.Vertex, len(d.Cells))
	add := func(c *voronoi.Cell, v voronoi.Vertex) {
		if c == nil || v == voronoi.NO_VERTEX {
			return
		}
		s := sets[c]
		if s == nil {
			s = make(map[vertexKey]voronoi.Vertex)
			sets[c] = s
		}
		k := keyOf(v)
		if _, ok := s[k]; !ok {
			s[k] = v
		}
	}
	for _, e := range d.Edges {
		for _, v := range []voronoi.Vertex{e.Va.Vertex, e.Vb.Vertex} {
			add(e.LeftCell, v)
			add(e.RightCell, v)
		}
	}

	return func(c *voronoi.Cell) []Face {
		mine := sets[c]
		var faces []Face
		for _, other := range d.Cells {
			if other == c {
				continue
			}
			var shared []voronoi.Vertex
			for k := range sets[other] {
				if v, ok := mine[k]; ok {
					shared = append(shared, v)
				}
			}
			if len(shared) != 2 {
				continue
			}
			a, b := shared[0], shared[1]
			if lessVertex(b, a) {
				a, b = b, a
			}
			faces = append(faces, Face{Seed: other.Index, A: a, B: b})
		}
		sortFaces(faces)
		return faces
	}
}

func lessVertex(a, b voronoi.Vertex) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func sortFaces(faces []Face) {
	sort.Slice(faces, func(i, j int) bool { return faces[i].Seed < faces[j].Seed })
}
