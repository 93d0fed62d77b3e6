package watershed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
)

var grid = raster.Header{NCols: 4, NRows: 2, XLL: 0, YLL: 0, CellSize: 50}

// chain builds four cells along the top row draining left to right.
func chain() []Cell {
	return []Cell{
		{Col: 0, Row: 0, Down: 1, Length: 50, Hill: 2, Channel: true},
		{Col: 1, Row: 0, Down: 2, Length: 50, Hill: 2, Channel: true},
		{Col: 2, Row: 0, Down: 3, Length: 50, Hill: 1, Channel: true},
		{Col: 3, Row: 0, Down: Outlet, Length: 50, Hill: 1, Channel: true},
	}
}

func TestNewBasin(t *testing.T) {
	b, err := NewBasin(grid, 32618, 5, chain(), []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, 4, b.NumCells())
	assert.Equal(t, 2, b.NumHills())
	assert.Equal(t, 1, b.HillDownstream(2))
	assert.Equal(t, 0, b.HillDownstream(1))
	assert.Equal(t, 32618, b.EPSG())
	assert.Equal(t, 5.0, b.ChannelThreshold())

	c := b.Cell(1)
	assert.Equal(t, 75.0, c.X)
	assert.Equal(t, 75.0, c.Y)

	m := Mask(b)
	assert.Equal(t, 4, m.Count())
	assert.True(t, m.Get(3, 0))
	assert.False(t, m.Get(0, 1))
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cells := chain()
	cells[0].Down = 0      // drains into itself
	cells[2].Down = Outlet // outlet in the middle
	cells[1].Hill = 7      // unknown hill

	_, err := NewBasin(grid, 0, 0, cells, []int{0, 1})
	require.Error(t, err)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeStructural))

	var coded *meshErr.Error
	require.ErrorAs(t, err, &coded)
	assert.Len(t, multierr.Errors(coded.Cause), 3)
}

func TestValidateHillHierarchy(t *testing.T) {
	tests := []struct {
		name  string
		hills []int
		want  string
	}{
		{"self loop", []int{0, 2}, "drains into itself"},
		{"cycle", []int{2, 1}, "cycle"},
		{"unknown", []int{0, 9}, "unknown hill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBasin(grid, 0, 0, chain(), tt.hills)
			require.Error(t, err)
			assert.True(t, meshErr.Is(err, meshErr.ErrCodeStructural))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateEmpty(t *testing.T) {
	_, err := NewBasin(grid, 0, 0, nil, nil)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeStructural))
}

func TestReadYAML(t *testing.T) {
	src := `
epsg: 3116
threshold: 12
grid: {ncols: 3, nrows: 1, xll: 1000, yll: 500, cellsize: 100}
hills: [0]
cells:
  - {col: 0, row: 0, down: 1, length: 100, elevation: 1510, order: 1, acum: 3, hill: 1, channel: true}
  - {col: 1, row: 0, down: 2, length: 141.4, elevation: 1500, order: 1, acum: 6, hill: 1, channel: true}
  - {col: 2, row: 0, down: -1, length: 100, elevation: 1490, order: 2, acum: 9, hill: 1, channel: true}
`
	b, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, b.NumCells())
	assert.Equal(t, 3116, b.EPSG())

	c := b.Cell(1)
	assert.Equal(t, 1150.0, c.X)
	assert.Equal(t, 550.0, c.Y)
	assert.Equal(t, 141.4, c.Length)
	assert.Equal(t, 6.0, c.Accumulation)
	assert.Equal(t, 2, b.Cell(2).Order)
}

func TestReadJSON(t *testing.T) {
	src := `{"grid": {"ncols": 1, "nrows": 1, "cellsize": 10}, "hills": [0], ` +
		`"cells": [{"col": 0, "row": 0, "down": -1, "length": 10, "hill": 1, "channel": true}]}`
	b, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, b.NumCells())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader("cells: [1, 2"))
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidInput))

	_, err = Read(strings.NewReader("hills: [0]\ncells: []\n"))
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidInput), "missing grid")

	_, err = Load("/nonexistent/basin.yaml")
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeIO))
}
