package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// decodeSTL parses both binary and ASCII STL. STL stores per-facet vertex
// triples without connectivity, so identical coordinates are welded back into
// shared vertices; without welding every downstream watertightness and edge
// computation would be meaningless.
func decodeSTL(data []byte) (*Mesh, error) {
	if isASCIISTL(data) {
		return decodeSTLASCII(data)
	}
	return decodeSTLBinary(data)
}

// isASCIISTL sniffs the content: a "solid" prefix alone is not enough, since
// binary exporters routinely write it into the 80-byte header.
func isASCIISTL(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("solid")) && bytes.Contains(head, []byte("facet"))
}

func decodeSTLBinary(data []byte) (*Mesh, error) {
	if len(data) < 84 {
		return nil, &ParseError{Format: "stl", Msg: "binary STL shorter than header"}
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	const record = 50 // 12 floats + attribute byte count
	if uint64(len(data)-84) < uint64(count)*record {
		return nil, &ParseError{Format: "stl", Msg: "binary STL truncated"}
	}

	w := newVertexWelder()
	m := &Mesh{}
	off := 84
	for i := uint32(0); i < count; i++ {
		// Skip the normal (3 floats); it is recomputed from geometry anyway.
		tri := [3]int{}
		for j := 0; j < 3; j++ {
			base := off + 12 + j*12
			v := Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+8:]))),
			}
			tri[j] = w.index(m, v)
		}
		m.Faces = append(m.Faces, tri)
		off += record
	}
	return m, nil
}

func decodeSTLASCII(data []byte) (*Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	w := newVertexWelder()
	m := &Mesh{}
	var tri []int
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(strings.TrimSpace(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, &ParseError{Format: "stl", Line: line, Msg: "vertex needs 3 coordinates"}
			}
			v, err := parseVec3(fields[1], fields[2], fields[3])
			if err != nil {
				return nil, &ParseError{Format: "stl", Line: line, Msg: "invalid vertex coordinate"}
			}
			tri = append(tri, w.index(m, v))
		case "endfacet":
			if len(tri) != 3 {
				return nil, &ParseError{Format: "stl", Line: line, Msg: "facet does not have exactly 3 vertices"}
			}
			m.Faces = append(m.Faces, [3]int{tri[0], tri[1], tri[2]})
			tri = tri[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Format: "stl", Msg: err.Error()}
	}
	return m, nil
}

// vertexWelder deduplicates exactly equal coordinates.
type vertexWelder struct {
	seen map[[3]string]int
}

func newVertexWelder() *vertexWelder {
	return &vertexWelder{seen: make(map[[3]string]int)}
}

func (w *vertexWelder) index(m *Mesh, v Vec3) int {
	key := [3]string{
		strconv.FormatFloat(v.X, 'g', -1, 64),
		strconv.FormatFloat(v.Y, 'g', -1, 64),
		strconv.FormatFloat(v.Z, 'g', -1, 64),
	}
	if i, ok := w.seen[key]; ok {
		return i
	}
	i := len(m.Vertices)
	m.Vertices = append(m.Vertices, v)
	w.seen[key] = i
	return i
}
