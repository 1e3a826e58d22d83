package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Binary payload layout (little endian):
//
//	uint32  dimension
//	uint64  entry count
//	repeated per entry: int64 id, dimension float32 components
//
// Framing, checksums, and compression are the persistence package's job;
// this codec only covers the index contents.

// WriteTo serializes the index contents to w. It implements io.WriterTo.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	cw := &countingWriter{w: w}
	if err := binary.Write(cw, binary.LittleEndian, uint32(f.dimension)); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, uint64(len(f.ids))); err != nil {
		return cw.n, err
	}

	buf := make([]byte, 8+4*f.dimension)
	for i, id := range f.ids {
		binary.LittleEndian.PutUint64(buf[:8], uint64(id))
		for j, x := range f.vectors[i] {
			binary.LittleEndian.PutUint32(buf[8+4*j:], math.Float32bits(x))
		}
		if _, err := cw.Write(buf); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadFrom replaces the index contents from a serialized snapshot. The
// snapshot's dimension must match the dimension fixed at creation. On error
// the previous contents are left untouched. It implements io.ReaderFrom.
func (f *Flat) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var dim uint32
	if err := binary.Read(cr, binary.LittleEndian, &dim); err != nil {
		return cr.n, err
	}
	if int(dim) != f.dimension {
		return cr.n, &ErrDimensionMismatch{Expected: f.dimension, Actual: int(dim)}
	}

	var count uint64
	if err := binary.Read(cr, binary.LittleEndian, &count); err != nil {
		return cr.n, err
	}
	const maxEntries = 1 << 30
	if count > maxEntries {
		return cr.n, fmt.Errorf("index: implausible entry count %d", count)
	}

	ids := make([]int64, 0, count)
	vectors := make([][]float32, 0, count)
	buf := make([]byte, 8+4*f.dimension)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(cr, buf); err != nil {
			return cr.n, fmt.Errorf("index: truncated snapshot at entry %d: %w", i, err)
		}
		ids = append(ids, int64(binary.LittleEndian.Uint64(buf[:8])))
		vec := make([]float32, f.dimension)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[8+4*j:]))
		}
		vectors = append(vectors, vec)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = ids
	f.vectors = vectors
	return cr.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
