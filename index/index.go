// Package index provides the in-memory vector index used for shape
// similarity search.
package index

import (
	"errors"
	"fmt"
)

// Entry pairs a model identifier with its descriptor vector.
type Entry struct {
	ID     int64
	Vector []float32
}

// Result is a single nearest-neighbor search hit. Similarity maps squared
// L2 distance between unit vectors onto [0, 1], where 1 means identical.
type Result struct {
	ID         int64
	Distance   float32
	Similarity float32
}

// Stats describes the current contents of an index.
type Stats struct {
	Count     int `json:"count"`
	Dimension int `json:"dimension"`
}

// ErrInvalidK is returned when a search is requested with k < 1.
var ErrInvalidK = errors.New("index: k must be greater than zero")

// ErrEmptyVector is returned when an empty vector is inserted or searched.
var ErrEmptyVector = errors.New("index: empty vector")

// ErrInvalidDimension is returned when an index is created with a
// non-positive dimension.
var ErrInvalidDimension = errors.New("index: dimension must be greater than zero")

// ErrDimensionMismatch is returned when a vector's dimensionality does not
// match the dimension fixed at index creation.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("index: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
