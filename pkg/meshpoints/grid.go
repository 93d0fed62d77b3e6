package meshpoints

import (
	"slices"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

type GridOptions struct {
	// Stride between sampled columns and rows.
	Stride int
	// BorderIterations times each scale gives the dilation passes of a ring.
	BorderIterations int
	BorderScales     []int
	// ClearRiver removes samples closer than MinDistanceToRiver to a river
	// point.
	ClearRiver         bool
	MinDistanceToRiver float64
	Logger             *logger.ZapLogger
}

type GridResult struct {
	Interior []Point
	// Rings holds one boundary ring per border scale, in BorderScales order.
	Rings   [][]Point
	Cleared int
}

// Narrow returns the first ring, the one that bounds the tessellation.
func (r GridResult) Narrow() []Point {
	if len(r.Rings) == 0 {
		return nil
	}
	return r.Rings[0]
}

// GridPoints samples the basin cells of ws every Stride columns and rows and
// builds the boundary rings around the basin. river is only used for the
// clearance pass.
func GridPoints(ws watershed.Watershed, river []Point, opts GridOptions) GridResult {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	stride := max(opts.Stride, 1)

	grid := ws.Grid()
	mask := watershed.Mask(ws)

	var res GridResult
	for row := 0; row < grid.NRows; row += stride {
		for col := 0; col < grid.NCols; col += stride {
			if !mask.Get(col, row) {
				continue
			}
			x, y := grid.CellCenter(col, row)
			res.Interior = append(res.Interior, Point{X: x, Y: y, Category: Grid, Origin: -1})
		}
	}

	for k, ring := range BoundaryRings(mask, opts.BorderIterations, opts.BorderScales) {
		pts := make([]Point, len(ring))
		for i, c := range ring {
			x, y := grid.CellCenter(c[0], c[1])
			pts[i] = Point{X: x, Y: y, Category: Boundary, Origin: k}
		}
		res.Rings = append(res.Rings, pts)
	}

	if opts.ClearRiver && len(river) > 0 && len(res.Interior) > 0 {
		res.Interior, res.Cleared = clearRiver(res.Interior, river, opts.MinDistanceToRiver)
	}

	log.Info("[points] grid points ready",
		zap.Int("interior", len(res.Interior)),
		zap.Int("boundary", len(res.Narrow())),
		zap.Int("cleared", res.Cleared))
	return res
}

// BoundaryRings dilates mask iterations*scale times per scale and returns
// the cells added by the last pass, as (col, row) in the coordinates of
// mask. Columns and rows may be negative or past the grid: the mask is
// padded so every ring is complete.
func BoundaryRings(mask *raster.Mask, iterations int, scales []int) [][][2]int {
	pad := iterations * slices.Max(append([]int{0}, scales...))
	padded := mask.Pad(pad)

	rings := make([][][2]int, 0, len(scales))
	for _, s := range scales {
		n := iterations * s
		if n < 1 {
			rings = append(rings, nil)
			continue
		}
		before := padded.DilateN(n - 1)
		ring := before.Dilate().Minus(before).Cells()
		for i := range ring {
			ring[i][0] -= pad
			ring[i][1] -= pad
		}
		rings = append(rings, ring)
	}
	return rings
}

// clearRiver drops the samples closer than dist to any river point.
func clearRiver(samples, river []Point, dist float64) ([]Point, int) {
	tree := newIndex(samples)
	drop := make([]bool, len(samples))
	for _, r := range river {
		for _, j := range within(tree, r.X, r.Y, dist) {
			drop[j] = true
		}
	}

	kept := samples[:0:0]
	for i, p := range samples {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	return kept, len(samples) - len(kept)
}
