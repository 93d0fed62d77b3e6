// Package watershed exposes a delineated basin to the mesh stages.
//
// Delineation itself happens elsewhere; this package only defines the
// read-only accessor, an in-memory implementation and a file loader.
package watershed

import (
	"fmt"

	"go.uber.org/multierr"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
)

// Outlet is the Down value of the basin outlet cell.
const Outlet = -1

// Cell is one cell of the delineated basin.
type Cell struct {
	Col, Row     int
	X, Y         float64
	Length       float64
	Elevation    float64
	Order        int
	Accumulation float64
	// Hill is the hillslope (and channel link) the cell belongs to, 1-based.
	Hill    int
	Channel bool
	// Down is the index of the cell this one drains into, or Outlet.
	Down int
}

// Watershed is the read-only view every stage works on. Cells are indexed
// so that each cell drains into a cell with a larger index and the outlet
// is the last cell.
type Watershed interface {
	NumCells() int
	Cell(i int) Cell
	NumHills() int
	// HillDownstream returns the hill h drains into; 0 is the basin outlet.
	HillDownstream(h int) int
	ChannelThreshold() float64
	EPSG() int
	Grid() raster.Header
}

// Basin is the in-memory Watershed.
type Basin struct {
	grid      raster.Header
	epsg      int
	threshold float64
	cells     []Cell
	hills     []int
}

// NewBasin builds a basin, fills cell coordinates from the grid and checks
// the cell graph and the hill hierarchy. hills[h-1] is the hill that hill h
// drains into.
func NewBasin(grid raster.Header, epsg int, threshold float64, cells []Cell, hills []int) (*Basin, error) {
	b := &Basin{
		grid:      grid,
		epsg:      epsg,
		threshold: threshold,
		cells:     make([]Cell, len(cells)),
		hills:     append([]int(nil), hills...),
	}
	for i, c := range cells {
		c.X, c.Y = grid.CellCenter(c.Col, c.Row)
		b.cells[i] = c
	}

	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Basin) NumCells() int             { return len(b.cells) }
func (b *Basin) Cell(i int) Cell           { return b.cells[i] }
func (b *Basin) NumHills() int             { return len(b.hills) }
func (b *Basin) HillDownstream(h int) int  { return b.hills[h-1] }
func (b *Basin) ChannelThreshold() float64 { return b.threshold }
func (b *Basin) EPSG() int                 { return b.epsg }
func (b *Basin) Grid() raster.Header       { return b.grid }

// maxReported caps the number of per-cell problems collected by Validate.
const maxReported = 20

// Validate checks that the cell graph drains monotonically to a single
// outlet and that the hill hierarchy is a tree rooted at 0. Every problem
// found is returned, combined with multierr, inside one STRUCTURAL error.
func Validate(ws Watershed) error {
	var errs error
	reported := 0
	report := func(format string, args ...any) {
		if reported < maxReported {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
		reported++
	}

	n := ws.NumCells()
	if n == 0 {
		return meshErr.New(meshErr.ErrCodeStructural, "watershed has no cells")
	}
	grid := ws.Grid()
	nh := ws.NumHills()

	for i := 0; i < n; i++ {
		c := ws.Cell(i)
		switch {
		case i == n-1 && c.Down != Outlet:
			report("last cell %d drains into %d, want outlet", i, c.Down)
		case i < n-1 && c.Down == Outlet:
			report("cell %d is an outlet but is not the last cell", i)
		case i < n-1 && (c.Down <= i || c.Down >= n):
			report("cell %d drains into %d, want an index in (%d, %d)", i, c.Down, i, n)
		}
		if c.Hill < 0 || c.Hill > nh {
			report("cell %d belongs to hill %d, want 0..%d", i, c.Hill, nh)
		}
		if c.Length < 0 {
			report("cell %d has negative length %g", i, c.Length)
		}
		if grid.CellSize > 0 && !grid.InBounds(c.Col, c.Row) {
			report("cell %d at (%d, %d) lies outside the %dx%d grid", i, c.Col, c.Row, grid.NCols, grid.NRows)
		}
	}

	for h := 1; h <= nh; h++ {
		d := ws.HillDownstream(h)
		if d < 0 || d > nh {
			report("hill %d drains into unknown hill %d", h, d)
			continue
		}
		if d == h {
			report("hill %d drains into itself", h)
			continue
		}
		// Walking more than nh steps without reaching 0 means a cycle.
		cur, steps := h, 0
		for cur != 0 && steps <= nh {
			next := ws.HillDownstream(cur)
			if next < 0 || next > nh {
				break
			}
			cur = next
			steps++
		}
		if cur != 0 && steps > nh {
			report("hill %d is part of a drainage cycle", h)
		}
	}

	if reported > maxReported {
		errs = multierr.Append(errs, fmt.Errorf("%d more problems", reported-maxReported))
	}
	if errs != nil {
		return meshErr.Wrap(meshErr.ErrCodeStructural, errs, "invalid watershed")
	}
	return nil
}

// Mask marks the basin cells on the watershed grid.
func Mask(ws Watershed) *raster.Mask {
	g := ws.Grid()
	m := raster.NewMask(g.NCols, g.NRows)
	for i := 0; i < ws.NumCells(); i++ {
		c := ws.Cell(i)
		if g.InBounds(c.Col, c.Row) {
			m.Set(c.Col, c.Row, true)
		}
	}
	return m
}
