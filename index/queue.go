package index

import "container/heap"

// Compile-time check that maxHeap satisfies the heap interface.
var _ heap.Interface = (*maxHeap)(nil)

// heapItem tracks a candidate by its slot in the dense arrays. Distance is
// the priority; pos doubles as the tie-breaker so equal distances keep
// insertion order in the final ranking.
type heapItem struct {
	pos      int
	distance float32
}

// maxHeap keeps the k best candidates with the current worst on top.
type maxHeap struct {
	items []heapItem
}

func newMaxHeap(capacity int) *maxHeap {
	return &maxHeap{items: make([]heapItem, 0, capacity)}
}

func (h *maxHeap) Len() int { return len(h.items) }

func (h *maxHeap) Less(i, j int) bool {
	if h.items[i].distance != h.items[j].distance {
		return h.items[i].distance > h.items[j].distance
	}
	return h.items[i].pos > h.items[j].pos
}

func (h *maxHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *maxHeap) Push(x any) { h.items = append(h.items, x.(heapItem)) }

func (h *maxHeap) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	return item
}
