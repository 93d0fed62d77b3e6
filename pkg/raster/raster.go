// Package raster holds regular grids: the terrain elevation model, the basin
// mask and the row/col <-> x/y lookups shared by both.
//
// Rows count from the top of the grid, columns from the left; (XLL, YLL) is
// the lower-left corner of the lower-left cell.
package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Header describes the geometry of a grid.
type Header struct {
	NCols    int     `yaml:"ncols" json:"ncols"`
	NRows    int     `yaml:"nrows" json:"nrows"`
	XLL      float64 `yaml:"xll" json:"xll"`
	YLL      float64 `yaml:"yll" json:"yll"`
	CellSize float64 `yaml:"cellsize" json:"cellsize"`
	NoData   float64 `yaml:"nodata" json:"nodata"`
}

// CellCenter returns the map coordinates of the center of (col, row).
func (h Header) CellCenter(col, row int) (x, y float64) {
	x = h.XLL + (float64(col)+0.5)*h.CellSize
	y = h.YLL + (float64(h.NRows-row)-0.5)*h.CellSize
	return x, y
}

// Locate returns the cell containing (x, y) and whether it lies inside the grid.
func (h Header) Locate(x, y float64) (col, row int, ok bool) {
	col = int(math.Floor((x - h.XLL) / h.CellSize))
	row = h.NRows - 1 - int(math.Floor((y-h.YLL)/h.CellSize))
	return col, row, h.InBounds(col, row)
}

func (h Header) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < h.NCols && row < h.NRows
}

// DEM is an elevation grid stored row-major from the top row.
type DEM struct {
	Header
	Values []float64
}

// NewDEM allocates a grid filled with the nodata value.
func NewDEM(h Header) *DEM {
	values := make([]float64, h.NCols*h.NRows)
	for i := range values {
		values[i] = h.NoData
	}
	return &DEM{Header: h, Values: values}
}

func (d *DEM) At(col, row int) float64 {
	return d.Values[row*d.NCols+col]
}

func (d *DEM) Set(col, row int, v float64) {
	d.Values[row*d.NCols+col] = v
}

// IsNoData reports whether v is the nodata marker or not a number.
func (d *DEM) IsNoData(v float64) bool {
	return v == d.NoData || math.IsNaN(v)
}

// MedianWindow returns the median of the valid values in the
// (2*half+1)x(2*half+1) window centered on the cell containing (x, y). The
// window is clamped to the grid. ok is false when (x, y) falls outside the
// grid or no value in the window is valid.
func (d *DEM) MedianWindow(x, y float64, half int) (float64, bool) {
	col, row, ok := d.Locate(x, y)
	if !ok {
		return 0, false
	}

	c0, c1 := max(col-half, 0), min(col+half, d.NCols-1)
	r0, r1 := max(row-half, 0), min(row+half, d.NRows-1)

	vals := make([]float64, 0, (c1-c0+1)*(r1-r0+1))
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if v := d.At(c, r); !d.IsNoData(v) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return 0, false
	}

	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 0 {
		return stat.Mean(vals[n/2-1:n/2+1], nil), true
	}
	return stat.Quantile(0.5, stat.Empirical, vals, nil), true
}
