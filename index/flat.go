package index

import (
	"container/heap"
	"context"
	"math"
	"sync"
)

// Flat is a brute-force vector index. Vectors are stored densely in
// insertion order; every search scans all of them. Exact, predictable, and
// fast enough for collections in the tens of thousands of descriptors.
//
// All methods are safe for concurrent use. Reads proceed in parallel under
// an RWMutex; writes are serialized.
type Flat struct {
	mu        sync.RWMutex
	dimension int
	ids       []int64
	vectors   [][]float32
}

// NewFlat creates an empty index with a fixed vector dimensionality.
func NewFlat(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Flat{dimension: dimension}, nil
}

// Insert adds a vector under the given identifier. The vector is copied and
// renormalized to unit length; later mutation of v by the caller cannot
// corrupt the index. Duplicate identifiers are accepted here; deduplication
// is the caller's concern.
func (f *Flat) Insert(ctx context.Context, id int64, v []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vec, err := f.prepare(v)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, vec)
	return nil
}

// Search returns the k nearest stored vectors to query, nearest first.
// k is clamped to the index size; an empty index yields no results. Ties in
// distance rank in insertion order.
func (f *Flat) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	q, err := f.prepare(query)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.ids) == 0 {
		return nil, nil
	}
	if k > len(f.ids) {
		k = len(f.ids)
	}

	top := newMaxHeap(k)
	for i, vec := range f.vectors {
		d := squaredL2(q, vec)
		if top.Len() < k {
			heap.Push(top, heapItem{pos: i, distance: d})
			continue
		}
		if d < top.items[0].distance {
			heap.Pop(top)
			heap.Push(top, heapItem{pos: i, distance: d})
		}
	}

	results := make([]Result, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item := heap.Pop(top).(heapItem)
		results[i] = Result{
			ID:         f.ids[item.pos],
			Distance:   item.distance,
			Similarity: similarity(item.distance),
		}
	}
	return results, nil
}

// Rebuild atomically replaces the index contents. Every entry is validated
// before anything is swapped in, so a failed rebuild leaves the previous
// contents untouched. Rebuilding with an empty slice clears the index; this
// is the only way to remove vectors.
func (f *Flat) Rebuild(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]int64, len(entries))
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		vec, err := f.prepare(e.Vector)
		if err != nil {
			return err
		}
		ids[i] = e.ID
		vectors[i] = vec
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids = ids
	f.vectors = vectors
	return nil
}

// Entries returns a copy of the current contents in insertion order.
func (f *Flat) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Entry, len(f.ids))
	for i, id := range f.ids {
		vec := make([]float32, len(f.vectors[i]))
		copy(vec, f.vectors[i])
		out[i] = Entry{ID: id, Vector: vec}
	}
	return out
}

// Stats returns the current size and dimensionality.
func (f *Flat) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{Count: len(f.ids), Dimension: f.dimension}
}

// Dimension returns the dimensionality fixed at creation.
func (f *Flat) Dimension() int { return f.dimension }

// prepare validates a vector and returns a unit-length copy.
func (f *Flat) prepare(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, ErrEmptyVector
	}
	if len(v) != f.dimension {
		return nil, &ErrDimensionMismatch{Expected: f.dimension, Actual: len(v)}
	}
	vec := make([]float32, len(v))
	copy(vec, v)

	var norm2 float64
	for _, x := range vec {
		norm2 += float64(x) * float64(x)
	}
	if norm2 > 0 && norm2 != 1 {
		inv := 1 / math.Sqrt(norm2)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// similarity maps squared L2 distance between unit vectors (range [0, 4])
// onto [0, 1].
func similarity(d float32) float32 {
	s := 1 - d/4
	if s < 0 {
		return 0
	}
	return s
}
