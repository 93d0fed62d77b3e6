package topology

import (
	"container/heap"

	"go.uber.org/zap"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

// Options configures Assemble.
type Options struct {
	DecomposeOptions
	// ChannelSensitivity lowers the accumulation threshold used to find
	// link cells when a link has no flagged channel cell.
	ChannelSensitivity float64
	Logger             *logger.ZapLogger
}

// Assemble decomposes every channel link of ws into segments and stitches
// them into one network rooted at the outlet sentinel. Links are visited
// downstream first so that every segment drains into an id assigned
// earlier.
func Assemble(ws watershed.Watershed, opts Options) (*Network, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Threshold <= 0 {
		return nil, meshErr.New(meshErr.ErrCodeInvalidConfig, "segment threshold must be positive, got %g", opts.Threshold)
	}
	if err := watershed.Validate(ws); err != nil {
		return nil, err
	}

	n := ws.NumCells()
	nh := ws.NumHills()
	outlet := ws.Cell(n - 1)

	net := &Network{Segments: []Segment{{
		ID:        0,
		Down:      NoDownstream,
		X:         outlet.X,
		Y:         outlet.Y,
		ZMin:      sentinelZ,
		ZMax:      sentinelZ,
		Order:     outlet.Order,
		StartCell: watershed.Outlet,
	}}}

	links := LinkCells(ws, opts.ChannelSensitivity)

	children := make([][]int, nh+1)
	for h := 1; h <= nh; h++ {
		d := ws.HillDownstream(h)
		children[d] = append(children[d], h)
	}

	// newDest[h] is the segment that tributaries of link h drain into.
	newDest := make([]int, nh+1)
	lastID := 0

	ready := &intHeap{}
	for _, h := range children[0] {
		heap.Push(ready, h)
	}

	visited := 0
	for ready.Len() > 0 {
		h := heap.Pop(ready).(int)
		visited++

		dest := 0
		if d := ws.HillDownstream(h); d != 0 {
			dest = newDest[d]
		}

		if len(links[h]) == 0 {
			log.Warn("[topo] link without channel cells, passing through",
				zap.Int("link", h), zap.Int("dest", dest))
			net.EmptyLinks++
			newDest[h] = dest
		} else {
			segs, last := Decompose(ws, links[h], lastID, dest, opts.DecomposeOptions)
			net.Segments = append(net.Segments, segs...)
			lastID = last
			newDest[h] = last
			log.Debug("[topo] link decomposed",
				zap.Int("link", h), zap.Int("cells", len(links[h])), zap.Int("segments", len(segs)))
		}

		for _, c := range children[h] {
			heap.Push(ready, c)
		}
	}

	if visited != nh {
		return nil, meshErr.New(meshErr.ErrCodeStructural,
			"%d of %d links are not reachable from the outlet", nh-visited, nh)
	}

	log.Info("[topo] network assembled",
		zap.Int("links", nh), zap.Int("segments", net.Len()), zap.Int("empty_links", net.EmptyLinks))
	return net, nil
}

// LinkCells groups the channel cells of every link, upstream first. Links
// with no flagged channel cell fall back to the cells whose accumulation
// exceeds the channel threshold minus sensitivity. Index 0 is unused.
func LinkCells(ws watershed.Watershed, sensitivity float64) [][]int {
	links := make([][]int, ws.NumHills()+1)
	for i := 0; i < ws.NumCells(); i++ {
		c := ws.Cell(i)
		if c.Channel && c.Hill > 0 {
			links[c.Hill] = append(links[c.Hill], i)
		}
	}

	limit := ws.ChannelThreshold() - sensitivity
	for i := 0; i < ws.NumCells(); i++ {
		c := ws.Cell(i)
		if c.Hill > 0 && !c.Channel && c.Accumulation > limit && !hasFlagged(ws, links[c.Hill]) {
			links[c.Hill] = append(links[c.Hill], i)
		}
	}
	return links
}

func hasFlagged(ws watershed.Watershed, cells []int) bool {
	return len(cells) > 0 && ws.Cell(cells[0]).Channel
}

// intHeap is a min-heap of link ids.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
