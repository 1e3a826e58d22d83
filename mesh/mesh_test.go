package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitCube returns a watertight unit cube with consistently outward faces.
func unitCube() *Mesh {
	return &Mesh{
		Vertices: []Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{2, 3, 7}, {2, 7, 6}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	}
}

// tetrahedron returns a watertight tetrahedron of volume 1/6.
func tetrahedron() *Mesh {
	return &Mesh{
		Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Faces:    [][3]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}},
	}
}

func TestNormalize(t *testing.T) {
	t.Run("CenteredAndScaled", func(t *testing.T) {
		m := unitCube()
		n := Normalize(m)

		c := n.Centroid()
		assert.InDelta(t, 0, c.X, 1e-12)
		assert.InDelta(t, 0, c.Y, 1e-12)
		assert.InDelta(t, 0, c.Z, 1e-12)

		maxDist := 0.0
		for _, v := range n.Vertices {
			if d := v.Norm(); d > maxDist {
				maxDist = d
			}
		}
		assert.InDelta(t, 1.0, maxDist, 1e-12)

		// Input untouched.
		assert.Equal(t, Vec3{0, 0, 0}, m.Vertices[0])
	})

	t.Run("Idempotent", func(t *testing.T) {
		n := Normalize(unitCube())
		n2 := Normalize(n)
		for i := range n.Vertices {
			assert.InDelta(t, n.Vertices[i].X, n2.Vertices[i].X, 1e-12)
			assert.InDelta(t, n.Vertices[i].Y, n2.Vertices[i].Y, 1e-12)
			assert.InDelta(t, n.Vertices[i].Z, n2.Vertices[i].Z, 1e-12)
		}
	})

	t.Run("SinglePoint", func(t *testing.T) {
		m := &Mesh{Vertices: []Vec3{{3, 4, 5}}}
		n := Normalize(m)
		assert.Equal(t, Vec3{0, 0, 0}, n.Vertices[0])
	})
}

func TestGeometry(t *testing.T) {
	t.Run("Cube", func(t *testing.T) {
		m := unitCube()
		assert.InDelta(t, 1.0, m.Volume(), 1e-12)
		assert.InDelta(t, 6.0, m.SurfaceArea(), 1e-12)
		assert.Equal(t, 18, m.EdgeCount()) // 12 cube edges + 6 face diagonals
		assert.True(t, m.IsWatertight())

		ext := m.Extents()
		assert.Equal(t, [3]float64{1, 1, 1}, ext)
	})

	t.Run("Tetrahedron", func(t *testing.T) {
		m := tetrahedron()
		assert.InDelta(t, 1.0/6, m.Volume(), 1e-12)
		assert.True(t, m.IsWatertight())
	})

	t.Run("OpenSurface", func(t *testing.T) {
		m := &Mesh{
			Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:    [][3]int{{0, 1, 2}},
		}
		assert.False(t, m.IsWatertight())
		assert.InDelta(t, 0.5, m.SurfaceArea(), 1e-12)
		assert.Equal(t, 3, m.EdgeCount())
	})
}

func TestConvexHull(t *testing.T) {
	t.Run("CubeWithInteriorPoint", func(t *testing.T) {
		m := unitCube()
		m.Vertices = append(m.Vertices, Vec3{0.5, 0.5, 0.5})

		hull, err := ConvexHull(m)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, hull.Volume(), 1e-9)
		assert.True(t, hull.IsWatertight())
		assert.Equal(t, 8, hull.VertexCount()) // interior point removed
	})

	t.Run("Tetrahedron", func(t *testing.T) {
		hull, err := ConvexHull(tetrahedron())
		require.NoError(t, err)
		assert.InDelta(t, 1.0/6, hull.Volume(), 1e-9)
	})

	t.Run("Sphere", func(t *testing.T) {
		// The hull of points on a sphere keeps every input vertex.
		m := spherePoints(200)
		hull, err := ConvexHull(m)
		require.NoError(t, err)
		assert.True(t, hull.IsWatertight())
		assert.Equal(t, 200, hull.VertexCount())
		// Hull volume approaches 4/3·π as the sampling densifies.
		assert.InDelta(t, 4*math.Pi/3, hull.Volume(), 0.4)
	})

	t.Run("DegenerateCoplanar", func(t *testing.T) {
		m := &Mesh{Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}}
		_, err := ConvexHull(m)
		assert.ErrorIs(t, err, ErrDegenerateHull)
	})

	t.Run("TooFewPoints", func(t *testing.T) {
		m := &Mesh{Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
		_, err := ConvexHull(m)
		assert.ErrorIs(t, err, ErrDegenerateHull)
	})
}

// spherePoints builds a vertex cloud on the unit sphere via a Fibonacci
// lattice. Faces are left empty; only the hull uses it.
func spherePoints(n int) *Mesh {
	m := &Mesh{Vertices: make([]Vec3, 0, n)}
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		th := golden * float64(i)
		m.Vertices = append(m.Vertices, Vec3{r * math.Cos(th), r * math.Sin(th), z})
	}
	return m
}
