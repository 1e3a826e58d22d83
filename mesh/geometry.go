package mesh

import "math"

// Bounds returns the axis-aligned bounding box of the mesh as (min, max).
// For an empty mesh both corners are the zero vector.
func (m *Mesh) Bounds() (Vec3, Vec3) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max := m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return min, max
}

// Extents returns the bounding box edge lengths along x, y, z.
func (m *Mesh) Extents() [3]float64 {
	min, max := m.Bounds()
	return [3]float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Norm()
}

// SurfaceArea returns the total surface area of the mesh.
func (m *Mesh) SurfaceArea() float64 {
	total := 0.0
	for i := range m.Faces {
		total += m.FaceArea(i)
	}
	return total
}

// Volume returns the absolute enclosed volume of the mesh, computed as the
// sum of signed tetrahedron volumes against the origin. The value is only
// meaningful for watertight meshes; callers gate on IsWatertight.
func (m *Mesh) Volume() float64 {
	signed := 0.0
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		signed += a.Dot(b.Cross(c))
	}
	return math.Abs(signed / 6)
}

type edgeKey struct {
	lo, hi int
}

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// EdgeCount returns the number of unique undirected edges.
func (m *Mesh) EdgeCount() int {
	edges := make(map[edgeKey]struct{}, 3*len(m.Faces)/2)
	for _, f := range m.Faces {
		edges[newEdgeKey(f[0], f[1])] = struct{}{}
		edges[newEdgeKey(f[1], f[2])] = struct{}{}
		edges[newEdgeKey(f[2], f[0])] = struct{}{}
	}
	return len(edges)
}

// IsWatertight reports whether the mesh is a closed, manifold, consistently
// oriented surface: every undirected edge must be shared by exactly two
// faces, traversed once in each direction.
func (m *Mesh) IsWatertight() bool {
	if len(m.Faces) == 0 {
		return false
	}
	// forward counts directed edges a->b; an edge is consistent when the
	// opposite direction appears exactly once.
	type dirKey struct{ a, b int }
	forward := make(map[dirKey]int, 3*len(m.Faces))
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a == b {
				return false // degenerate edge
			}
			forward[dirKey{a, b}]++
		}
	}
	for k, n := range forward {
		if n != 1 {
			return false
		}
		if forward[dirKey{k.b, k.a}] != 1 {
			return false
		}
	}
	return true
}
