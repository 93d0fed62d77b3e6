package raster

// Mask is a boolean grid, row-major from the top row.
type Mask struct {
	NCols, NRows int
	cells        []bool
}

func NewMask(ncols, nrows int) *Mask {
	return &Mask{NCols: ncols, NRows: nrows, cells: make([]bool, ncols*nrows)}
}

func (m *Mask) Get(col, row int) bool {
	if col < 0 || row < 0 || col >= m.NCols || row >= m.NRows {
		return false
	}
	return m.cells[row*m.NCols+col]
}

func (m *Mask) Set(col, row int, v bool) {
	m.cells[row*m.NCols+col] = v
}

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// Pad returns a copy with n empty cells added on every side.
func (m *Mask) Pad(n int) *Mask {
	out := NewMask(m.NCols+2*n, m.NRows+2*n)
	for r := 0; r < m.NRows; r++ {
		for c := 0; c < m.NCols; c++ {
			if m.Get(c, r) {
				out.Set(c+n, r+n, true)
			}
		}
	}
	return out
}

// Dilate applies one binary dilation with a 3x3 square structuring element.
func (m *Mask) Dilate() *Mask {
	out := NewMask(m.NCols, m.NRows)
	for r := 0; r < m.NRows; r++ {
		for c := 0; c < m.NCols; c++ {
			if !m.Get(c, r) {
				continue
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					cc, rr := c+dc, r+dr
					if cc >= 0 && rr >= 0 && cc < m.NCols && rr < m.NRows {
						out.Set(cc, rr, true)
					}
				}
			}
		}
	}
	return out
}

// DilateN applies Dilate n times.
func (m *Mask) DilateN(n int) *Mask {
	out := m
	for i := 0; i < n; i++ {
		out = out.Dilate()
	}
	return out
}

// Minus returns the cells set in m and not in o. Both masks must have the
// same shape.
func (m *Mask) Minus(o *Mask) *Mask {
	out := NewMask(m.NCols, m.NRows)
	for i, v := range m.cells {
		out.cells[i] = v && !o.cells[i]
	}
	return out
}

// Cells lists the set cells in row-major order as (col, row) pairs.
func (m *Mask) Cells() [][2]int {
	var out [][2]int
	for r := 0; r < m.NRows; r++ {
		for c := 0; c < m.NCols; c++ {
			if m.cells[r*m.NCols+c] {
				out = append(out, [2]int{c, r})
			}
		}
	}
	return out
}
