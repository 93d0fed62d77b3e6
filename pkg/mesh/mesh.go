// Package mesh builds the polygon mesh from the tessellation seeds: one
// Voronoi cell per seed, its area, elevation and neighbours, and the bank
// polygons of each river segment.
package mesh

import (
	"math"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/meshpoints"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/voronoi"
)

// Neighbor describes one face of a polygon.
type Neighbor struct {
	Seed int
	// PolygonID is 0 when the neighbour seed is not numbered.
	PolygonID  int
	FaceLength float64
	// Distance between the two seeds.
	Distance float64
	// Interior is false for boundary seeds.
	Interior bool
}

// Polygon is one numbered mesh element. Center is its seed.
type Polygon struct {
	ID        int
	Seed      int
	Category  meshpoints.Category
	Center    voronoi.Vertex
	Elevation float64
	Area      float64
	Neighbors []Neighbor
	Ring      []voronoi.Vertex
}

type Mesh struct {
	// Seeds after duplicate removal; Neighbor.Seed and Polygon.Seed index it.
	Seeds []meshpoints.Point
	// Polygons[i].ID == i+1.
	Polygons   []Polygon
	Duplicates int
	// Unbounded counts river and grid seeds whose cell is open.
	Unbounded map[meshpoints.Category]int

	bySeed []int
}

// PolygonOf returns the polygon id of a seed, 0 when it has none.
func (m *Mesh) PolygonOf(seed int) int {
	return m.bySeed[seed]
}

type Options struct {
	// Adjacency defaults to Ridge.
	Adjacency Adjacency
	// ElevationWindow is the half width of the DEM window sampled at each
	// seed.
	ElevationWindow int
	Logger          *logger.ZapLogger
}

// Build tessellates seeds and numbers the bounded cells of river and grid
// seeds in seed order. dem may be nil, leaving elevations at 0.
func Build(seeds []meshpoints.Point, dem *raster.DEM, opts Options) *Mesh {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	adj := opts.Adjacency
	if adj == nil {
		adj = Ridge{}
	}

	m := &Mesh{Unbounded: make(map[meshpoints.Category]int)}
	m.Seeds, m.Duplicates = dedupe(seeds)
	if m.Duplicates > 0 {
		log.Warn("[mesh] duplicate seeds dropped", zap.Int("count", m.Duplicates))
	}

	// sweep around a local origin
	ox, oy := origin(m.Seeds)
	sites := make([]voronoi.Vertex, len(m.Seeds))
	for i, s := range m.Seeds {
		sites[i] = voronoi.Vertex{X: s.X - ox, Y: s.Y - oy}
	}
	d := voronoi.Compute(sites, voronoi.Options{Logger: log})
	faces := adj.Faces(d)

	m.bySeed = make([]int, len(m.Seeds))
	var cells []*voronoi.Cell
	for i, s := range m.Seeds {
		if s.Category >= meshpoints.Boundary {
			continue
		}
		c := d.CellOf(i)
		if c == nil {
			m.Duplicates++
			continue
		}
		if !c.Bounded() {
			m.Unbounded[s.Category]++
			log.Debug("[mesh] open cell skipped", zap.Int("seed", i), zap.Stringer("category", s.Category))
			continue
		}
		cells = append(cells, c)
		m.bySeed[i] = len(cells)
	}

	m.Polygons = make([]Polygon, len(cells))
	missingZ := 0
	for k, c := range cells {
		seed := m.Seeds[c.Index]
		ring := c.Ring(snap)
		p := Polygon{
			ID:       k + 1,
			Seed:     c.Index,
			Category: seed.Category,
			Center:   voronoi.Vertex{X: seed.X, Y: seed.Y},
			Area:     Shoelace(ring),
			Ring:     make([]voronoi.Vertex, len(ring)),
		}
		for i, v := range ring {
			p.Ring[i] = voronoi.Vertex{X: v.X + ox, Y: v.Y + oy}
		}
		if dem != nil {
			z, ok := dem.MedianWindow(seed.X, seed.Y, opts.ElevationWindow)
			if !ok {
				missingZ++
			}
			p.Elevation = z
		}

		for _, f := range faces(c) {
			nb := m.Seeds[f.Seed]
			p.Neighbors = append(p.Neighbors, Neighbor{
				Seed:       f.Seed,
				PolygonID:  m.bySeed[f.Seed],
				FaceLength: f.Length(),
				Distance:   math.Hypot(nb.X-seed.X, nb.Y-seed.Y),
				Interior:   nb.Category < meshpoints.Boundary,
			})
		}
		m.Polygons[k] = p
	}

	if missingZ > 0 {
		log.Warn("[mesh] polygons without a valid elevation", zap.Int("count", missingZ))
	}
	log.Info("[mesh] mesh built",
		zap.String("adjacency", adj.Name()),
		zap.Int("seeds", len(m.Seeds)),
		zap.Int("polygons", len(m.Polygons)),
		zap.Int("unbounded", m.Unbounded[meshpoints.River]+m.Unbounded[meshpoints.Grid]))
	return m
}

// dedupe drops seeds repeating the coordinates of an earlier one.
func dedupe(seeds []meshpoints.Point) ([]meshpoints.Point, int) {
	seen := make(map[[2]float64]bool, len(seeds))
	out := make([]meshpoints.Point, 0, len(seeds))
	for _, s := range seeds {
		k := [2]float64{s.X, s.Y}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out, len(seeds) - len(out)
}

func origin(seeds []meshpoints.Point) (float64, float64) {
	if len(seeds) == 0 {
		return 0, 0
	}
	ox, oy := seeds[0].X, seeds[0].Y
	for _, s := range seeds[1:] {
		ox = math.Min(ox, s.X)
		oy = math.Min(oy, s.Y)
	}
	return ox, oy
}

// Shoelace returns the unsigned area of a simple polygon.
func Shoelace(ring []voronoi.Vertex) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return math.Abs(s) / 2
}
