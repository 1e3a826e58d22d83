package descriptor

import (
	"math"
	"math/rand"
	"sort"

	"github.com/shapeseek/shapeseek/mesh"
)

// surfaceSampler draws points uniformly over a mesh surface, weighting
// triangles by area. When every face is degenerate (zero total area) faces
// are picked uniformly instead so extraction still produces points.
type surfaceSampler struct {
	mesh       *mesh.Mesh
	cumulative []float64
	total      float64
}

func newSurfaceSampler(m *mesh.Mesh) (*surfaceSampler, error) {
	if m.FaceCount() == 0 {
		return nil, ErrInsufficientGeometry
	}
	cum := make([]float64, m.FaceCount())
	var total float64
	for i := range m.Faces {
		total += m.FaceArea(i)
		cum[i] = total
	}
	if total == 0 {
		for i := range cum {
			cum[i] = float64(i + 1)
		}
		total = float64(len(cum))
	}
	return &surfaceSampler{mesh: m, cumulative: cum, total: total}, nil
}

// sample draws n surface points.
func (s *surfaceSampler) sample(n int, rng *rand.Rand) []mesh.Vec3 {
	pts := make([]mesh.Vec3, n)
	for i := range pts {
		pts[i] = s.one(rng)
	}
	return pts
}

func (s *surfaceSampler) one(rng *rand.Rand) mesh.Vec3 {
	target := rng.Float64() * s.total
	fi := sort.SearchFloat64s(s.cumulative, target)
	if fi >= len(s.cumulative) {
		fi = len(s.cumulative) - 1
	}
	f := s.mesh.Faces[fi]
	a := s.mesh.Vertices[f[0]]
	b := s.mesh.Vertices[f[1]]
	c := s.mesh.Vertices[f[2]]

	// Square-root trick for a uniform barycentric point.
	r1 := math.Sqrt(rng.Float64())
	r2 := rng.Float64()
	u := 1 - r1
	v := r1 * (1 - r2)
	w := r1 * r2
	return mesh.Vec3{
		X: u*a.X + v*b.X + w*c.X,
		Y: u*a.Y + v*b.Y + w*c.Y,
		Z: u*a.Z + v*b.Z + w*c.Z,
	}
}
