// Package mesh provides the canonical in-memory triangle mesh representation
// used by the shape retrieval pipeline, together with format loaders,
// normalization and basic geometric measurements.
//
// All downstream components (descriptor extraction, indexing) depend only on
// the Mesh type produced here; format-specific details never leave the load
// boundary.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyMesh is returned when parsing succeeds but yields no geometry.
	ErrEmptyMesh = errors.New("mesh: empty geometry")

	// ErrNoFaces is returned when a mesh has vertices but, after dropping
	// malformed faces, no triangles remain.
	ErrNoFaces = errors.New("mesh: no faces")
)

// ParseError indicates that raw mesh bytes could not be parsed into a
// consistent triangular mesh.
type ParseError struct {
	Format string // format hint that selected the parser (e.g. "obj")
	Line   int    // 1-based line number when known, 0 otherwise
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mesh: parse %s (line %d): %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("mesh: parse %s: %s", e.Format, e.Msg)
}

// Vec3 is a point or vector in 3D space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Mesh is a triangle mesh: an ordered vertex list and an ordered face list.
// Every face index is guaranteed to be in range for meshes produced by Load;
// constructors that build meshes by hand are responsible for the invariant.
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// Centroid returns the mean of the vertex positions. It returns the zero
// vector for a mesh without vertices.
func (m *Mesh) Centroid() Vec3 {
	if len(m.Vertices) == 0 {
		return Vec3{}
	}
	var c Vec3
	for _, v := range m.Vertices {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(m.Vertices)))
}

// Normalize returns a copy of m centered on its vertex centroid and scaled so
// that the farthest vertex lies on the unit sphere. A mesh whose vertices all
// coincide is centered but left unscaled. Normalize is pure and idempotent up
// to floating point error.
func Normalize(m *Mesh) *Mesh {
	out := &Mesh{
		Vertices: make([]Vec3, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(out.Faces, m.Faces)

	c := m.Centroid()
	maxDist := 0.0
	for i, v := range m.Vertices {
		p := v.Sub(c)
		out.Vertices[i] = p
		if d := p.Norm(); d > maxDist {
			maxDist = d
		}
	}
	if maxDist > 0 {
		inv := 1 / maxDist
		for i := range out.Vertices {
			out.Vertices[i] = out.Vertices[i].Scale(inv)
		}
	}
	return out
}
