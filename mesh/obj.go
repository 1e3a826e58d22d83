package mesh

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// decodeOBJ parses the Wavefront OBJ subset relevant to geometry retrieval:
// v and f statements. Texture/normal references in face tokens (v/vt/vn) are
// accepted and ignored; negative (relative) indices are resolved.
func decodeOBJ(data []byte) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(strings.TrimSpace(sc.Text()))
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, &ParseError{Format: "obj", Line: line, Msg: "vertex needs 3 coordinates"}
			}
			v, err := parseVec3(fields[1], fields[2], fields[3])
			if err != nil {
				return nil, &ParseError{Format: "obj", Line: line, Msg: "invalid vertex coordinate"}
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, &ParseError{Format: "obj", Line: line, Msg: "face needs at least 3 indices"}
			}
			poly := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx, err := parseOBJIndex(tok, len(m.Vertices))
				if err != nil {
					return nil, &ParseError{Format: "obj", Line: line, Msg: "invalid face index"}
				}
				poly = append(poly, idx)
			}
			m.Faces = triangulate(m.Faces, poly)
		}
		// vn, vt, usemtl, o, g, s, mtllib: ignored
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Format: "obj", Msg: err.Error()}
	}
	return m, nil
}

// parseOBJIndex resolves a face token ("7", "7/1", "7//2", "-1") to a
// zero-based vertex index.
func parseOBJIndex(tok string, nv int) (int, error) {
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		tok = tok[:i]
	}
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return nv + idx, nil // relative to the vertices seen so far
	}
	return idx - 1, nil // OBJ is 1-based
}

func parseVec3(xs, ys, zs string) (Vec3, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Vec3{}, err
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Vec3{}, err
	}
	z, err := strconv.ParseFloat(zs, 64)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{x, y, z}, nil
}
