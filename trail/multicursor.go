package trail

import (
	"container/heap"
	"io"
)

// MultiCursor merges N per-trail cursors into a single time-ordered stream,
// the way a multi-way merge sort combines sorted runs (spec.md §4.8).
// Ties on timestamp break by source index, the order the cursors were
// given to NewMultiCursor, so the merge is deterministic.
type MultiCursor struct {
	h mergeHeap
}

// Result pairs a merged Event with the trail id it came from.
type Result struct {
	TrailID uint64
	Event   Event
}

type heapItem struct {
	trailID uint64
	srcIdx  int
	cursor  *Cursor
	event   Event
}

type mergeHeap []*heapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].event.Timestamp != h[j].event.Timestamp {
		return h[i].event.Timestamp < h[j].event.Timestamp
	}

	return h[i].srcIdx < h[j].srcIdx
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(*heapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]

	return it
}

// NewMultiCursor returns a MultiCursor merging cursors in source order.
func NewMultiCursor(trailIDs []uint64, cursors []*Cursor) (*MultiCursor, error) {
	h := make(mergeHeap, 0, len(cursors))
	for i, c := range cursors {
		ev, err := c.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		h = append(h, &heapItem{trailID: trailIDs[i], srcIdx: i, cursor: c, event: ev})
	}
	heap.Init(&h)

	return &MultiCursor{h: h}, nil
}

// Next returns the next event across every merged trail in timestamp
// order, or io.EOF once every cursor is exhausted.
func (m *MultiCursor) Next() (Result, error) {
	if len(m.h) == 0 {
		return Result{}, io.EOF
	}

	top := m.h[0]
	res := Result{TrailID: top.trailID, Event: top.event}

	nextEv, err := top.cursor.Next()
	switch {
	case err == io.EOF:
		heap.Pop(&m.h)
	case err != nil:
		return Result{}, err
	default:
		top.event = nextEv
		heap.Fix(&m.h, 0)
	}

	return res, nil
}
