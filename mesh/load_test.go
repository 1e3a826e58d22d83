package mesh

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objTriangle = `
# simple triangle
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func TestLoadOBJ(t *testing.T) {
	t.Run("Triangle", func(t *testing.T) {
		m, err := Load(strings.NewReader(objTriangle), "model.obj")
		require.NoError(t, err)
		assert.Equal(t, 3, m.VertexCount())
		assert.Equal(t, 1, m.FaceCount())
	})

	t.Run("QuadIsTriangulated", func(t *testing.T) {
		src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
		m, err := Load(strings.NewReader(src), "obj")
		require.NoError(t, err)
		assert.Equal(t, 2, m.FaceCount())
	})

	t.Run("SlashForms", func(t *testing.T) {
		src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/2/2 3//3\n"
		m, err := Load(strings.NewReader(src), "obj")
		require.NoError(t, err)
		assert.Equal(t, [3]int{0, 1, 2}, m.Faces[0])
	})

	t.Run("NegativeIndices", func(t *testing.T) {
		src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
		m, err := Load(strings.NewReader(src), "obj")
		require.NoError(t, err)
		assert.Equal(t, [3]int{0, 1, 2}, m.Faces[0])
	})

	t.Run("OutOfRangeFaceDropped", func(t *testing.T) {
		src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nf 1 2 9\n"
		m, err := Load(strings.NewReader(src), "obj")
		require.NoError(t, err)
		assert.Equal(t, 1, m.FaceCount())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Load(strings.NewReader(""), "obj")
		assert.ErrorIs(t, err, ErrEmptyMesh)
	})

	t.Run("VerticesOnly", func(t *testing.T) {
		_, err := Load(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\n"), "obj")
		assert.ErrorIs(t, err, ErrNoFaces)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Load(strings.NewReader("v 0 0\n"), "obj")
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "obj", pe.Format)
		assert.Equal(t, 1, pe.Line)
	})
}

func TestLoadOFF(t *testing.T) {
	t.Run("Tetrahedron", func(t *testing.T) {
		src := "OFF\n4 4 6\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n3 0 2 1\n3 0 1 3\n3 1 2 3\n3 0 3 2\n"
		m, err := Load(strings.NewReader(src), "off")
		require.NoError(t, err)
		assert.Equal(t, 4, m.VertexCount())
		assert.Equal(t, 4, m.FaceCount())
		assert.True(t, m.IsWatertight())
	})

	t.Run("HeaderAndCountsOnOneLine", func(t *testing.T) {
		src := "OFF 3 1 3\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"
		m, err := Load(strings.NewReader(src), "off")
		require.NoError(t, err)
		assert.Equal(t, 1, m.FaceCount())
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Load(strings.NewReader("OFF\n4 4 6\n0 0 0\n"), "off")
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestLoadSTL(t *testing.T) {
	t.Run("ASCII", func(t *testing.T) {
		src := `solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid tri
`
		m, err := Load(strings.NewReader(src), "stl")
		require.NoError(t, err)
		assert.Equal(t, 3, m.VertexCount())
		assert.Equal(t, 1, m.FaceCount())
	})

	t.Run("ASCIIWeldsSharedVertices", func(t *testing.T) {
		src := `solid two
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 1 0 0
    vertex 1 1 0
    vertex 0 1 0
  endloop
endfacet
endsolid two
`
		m, err := Load(strings.NewReader(src), "stl")
		require.NoError(t, err)
		assert.Equal(t, 4, m.VertexCount())
		assert.Equal(t, 2, m.FaceCount())
	})

	t.Run("Binary", func(t *testing.T) {
		data := encodeBinarySTL(t, [][3][3]float32{
			{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		})
		m, err := Decode(data, "stl")
		require.NoError(t, err)
		assert.Equal(t, 4, m.VertexCount())
		assert.Equal(t, 2, m.FaceCount())
	})

	t.Run("BinaryTruncated", func(t *testing.T) {
		data := encodeBinarySTL(t, [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
		_, err := Decode(data[:len(data)-10], "stl")
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	})
}

func encodeBinarySTL(t *testing.T, tris [][3][3]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(tris))))
	for _, tri := range tris {
		var normal [3]float32
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, normal))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, tri))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))
	}
	return buf.Bytes()
}

func TestLoadPLY(t *testing.T) {
	t.Run("Triangle", func(t *testing.T) {
		src := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`
		m, err := Load(strings.NewReader(src), "ply")
		require.NoError(t, err)
		assert.Equal(t, 3, m.VertexCount())
		assert.Equal(t, 1, m.FaceCount())
	})

	t.Run("ExtraVertexProperties", func(t *testing.T) {
		src := `ply
format ascii 1.0
element vertex 3
property float nx
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
9 0 0 0
9 1 0 0
9 0 1 0
3 0 1 2
`
		m, err := Load(strings.NewReader(src), "ply")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, m.Vertices[1].X, 1e-12)
	})

	t.Run("BinaryRejected", func(t *testing.T) {
		src := "ply\nformat binary_little_endian 1.0\nend_header\n"
		_, err := Load(strings.NewReader(src), "ply")
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestFormats(t *testing.T) {
	assert.True(t, Supported("model.OBJ"))
	assert.True(t, Supported(".stl"))
	assert.True(t, Supported("ply"))
	assert.False(t, Supported("step"))

	_, err := Decode([]byte("x"), "step")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "step", pe.Format)
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.InDelta(t, 32, a.Dot(b), 1e-12)
	assert.Equal(t, Vec3{-3, 6, -3}, a.Cross(b))
	assert.InDelta(t, math.Sqrt(14), a.Norm(), 1e-12)
}
