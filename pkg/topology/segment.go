// Package topology turns channel links into the ordered river segment graph
// and measures each segment.
package topology

import (
	"math"

	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

const (
	// NoDownstream is the Down value of the outlet sentinel.
	NoDownstream = -999
	// sentinelZ fills the elevations of the outlet sentinel.
	sentinelZ = -999
)

// Segment is one river element. ID 0 is the outlet sentinel.
type Segment struct {
	ID   int
	Down int
	// X, Y locate the most upstream cell of the segment.
	X, Y       float64
	ZMin, ZMax float64
	Order      int
	// StartCell is the watershed index of the most upstream cell, or
	// watershed.Outlet for the sentinel.
	StartCell int
}

// Network is the river segment graph. Segments[i].ID == i and every
// segment drains into a segment with a smaller id.
type Network struct {
	Segments []Segment
	// EmptyLinks counts links that had no channel cells.
	EmptyLinks int
}

// Len is the number of real segments, the sentinel excluded.
func (n *Network) Len() int {
	return len(n.Segments) - 1
}

// DecomposeOptions drives Decompose.
type DecomposeOptions struct {
	// Threshold is the target segment length.
	Threshold float64
	// ChannelDepth is subtracted from the mean cell elevation for ZMin.
	ChannelDepth float64
}

// Decompose splits the cells of one link into segments of roughly
// Threshold length. cells are watershed indices ordered from upstream to
// downstream. Segment ids start at lastID+1 from the downstream end; the
// most downstream segment drains into dest and each other one into its
// downstream neighbour. The returned id is the most upstream segment, where
// tributaries of this link attach.
func Decompose(ws watershed.Watershed, cells []int, lastID, dest int, opts DecomposeOptions) ([]Segment, int) {
	if len(cells) == 0 {
		return nil, lastID
	}

	buckets := bucketize(ws, cells, opts.Threshold)

	nb := 0
	for _, b := range buckets {
		nb = max(nb, b)
	}

	segs := make([]Segment, nb)
	sums := make([]float64, nb)
	counts := make([]int, nb)
	for k, idx := range cells {
		c := ws.Cell(idx)
		i := buckets[k] - 1
		s := &segs[i]
		if counts[i] == 0 {
			s.X, s.Y = c.X, c.Y
			s.StartCell = idx
		}
		counts[i]++
		sums[i] += c.Elevation
		s.Order = max(s.Order, c.Order)
	}

	for i := range segs {
		s := &segs[i]
		s.ID = lastID + i + 1
		if i == 0 {
			s.Down = dest
		} else {
			s.Down = s.ID - 1
		}
		mean := sums[i] / float64(counts[i])
		s.ZMax = mean
		s.ZMin = mean - opts.ChannelDepth
	}

	return segs, lastID + nb
}

// bucketize assigns each cell a bucket number, 1 for the most downstream
// bucket. Single-cell buckets at either end are merged into their
// neighbour and numbers are made dense.
func bucketize(ws watershed.Watershed, cells []int, threshold float64) []int {
	m := len(cells)
	cat := make([]int, m)

	cum := 0.0
	for k, idx := range cells {
		cum += ws.Cell(idx).Length
		cat[k] = max(int(math.Ceil(cum/threshold)), 1)
	}

	last := cat[m-1]
	for k := range cat {
		cat[k] = last + 1 - cat[k]
	}

	if m > 1 && count(cat, cat[m-1]) == 1 {
		cat[m-1] = cat[m-2]
		for k := range cat {
			cat[k]--
		}
	}
	if m > 1 && count(cat, cat[0]) == 1 {
		cat[0] = cat[1]
	}

	return densify(cat)
}

func count(xs []int, v int) int {
	n := 0
	for _, x := range xs {
		if x == v {
			n++
		}
	}
	return n
}

// densify renumbers the values of a non-increasing sequence to 1..k,
// keeping their order.
func densify(cat []int) []int {
	out := make([]int, len(cat))
	rank := 0
	for k := len(cat) - 1; k >= 0; k-- {
		if k == len(cat)-1 || cat[k] != cat[k+1] {
			rank++
		}
		out[k] = rank
	}
	return out
}
