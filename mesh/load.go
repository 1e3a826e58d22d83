package mesh

import (
	"io"
	"path/filepath"
	"strings"
)

// Load parses raw mesh bytes into a Mesh. The format hint is a file name,
// extension or bare format token ("obj", ".stl", "part.off", ...); matching
// is case-insensitive. Malformed faces (out-of-range or repeated indices) are
// dropped rather than failing the whole load; a mesh left without any face
// after that repair fails with ErrNoFaces.
func Load(r io.Reader, format string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data, format)
}

// Decode is Load for in-memory bytes.
func Decode(data []byte, format string) (*Mesh, error) {
	var (
		m   *Mesh
		f   = normalizeFormat(format)
		err error
	)
	switch f {
	case "obj":
		m, err = decodeOBJ(data)
	case "off":
		m, err = decodeOFF(data)
	case "stl":
		m, err = decodeSTL(data)
	case "ply":
		m, err = decodePLY(data)
	default:
		return nil, &ParseError{Format: f, Msg: "unsupported format"}
	}
	if err != nil {
		return nil, err
	}
	return finishLoad(m, f)
}

// Formats lists the supported format tokens.
func Formats() []string { return []string{"obj", "off", "ply", "stl"} }

// Supported reports whether the format hint names a parseable format.
func Supported(format string) bool {
	switch normalizeFormat(format) {
	case "obj", "off", "ply", "stl":
		return true
	}
	return false
}

func normalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if ext := filepath.Ext(f); ext != "" {
		f = ext
	}
	return strings.TrimPrefix(f, ".")
}

// finishLoad enforces the Mesh invariants shared by all parsers.
func finishLoad(m *Mesh, format string) (*Mesh, error) {
	if len(m.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if !validFace(f, len(m.Vertices)) {
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if len(m.Faces) == 0 {
		return nil, ErrNoFaces
	}
	return m, nil
}

func validFace(f [3]int, nv int) bool {
	for _, idx := range f {
		if idx < 0 || idx >= nv {
			return false
		}
	}
	return f[0] != f[1] && f[1] != f[2] && f[0] != f[2]
}

// triangulate appends the fan triangulation of a polygon to faces.
func triangulate(faces [][3]int, poly []int) [][3]int {
	for i := 1; i+1 < len(poly); i++ {
		faces = append(faces, [3]int{poly[0], poly[i], poly[i+1]})
	}
	return faces
}
