package mesh

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// decodePLY parses ASCII PLY files. Vertex elements must carry x, y, z
// properties (any extras are skipped); face elements must start with a list
// property of vertex indices. Binary PLY is not supported.
func decodePLY(data []byte) (*Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if s == "" || strings.HasPrefix(s, "comment") {
				continue
			}
			return strings.Fields(s), true
		}
		return nil, false
	}

	magic, ok := next()
	if !ok || len(magic) == 0 || !strings.EqualFold(magic[0], "ply") {
		return nil, &ParseError{Format: "ply", Line: line, Msg: "missing ply magic"}
	}

	// Header: collect element counts and the vertex property order.
	var (
		nv, nf        int
		curElem       string
		xIdx, yIdx    = -1, -1
		zIdx, propPos = -1, 0
	)
	for {
		fields, ok := next()
		if !ok {
			return nil, &ParseError{Format: "ply", Line: line, Msg: "unterminated header"}
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, &ParseError{Format: "ply", Line: line, Msg: "only ascii PLY is supported"}
			}
		case "element":
			if len(fields) < 3 {
				return nil, &ParseError{Format: "ply", Line: line, Msg: "invalid element"}
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, &ParseError{Format: "ply", Line: line, Msg: "invalid element count"}
			}
			curElem = fields[1]
			propPos = 0
			switch curElem {
			case "vertex":
				nv = n
			case "face":
				nf = n
			}
		case "property":
			if curElem == "vertex" && len(fields) >= 3 && fields[1] != "list" {
				switch fields[len(fields)-1] {
				case "x":
					xIdx = propPos
				case "y":
					yIdx = propPos
				case "z":
					zIdx = propPos
				}
				propPos++
			}
		case "end_header":
			goto body
		}
	}

body:
	if xIdx < 0 || yIdx < 0 || zIdx < 0 {
		return nil, &ParseError{Format: "ply", Line: line, Msg: "vertex element lacks x/y/z properties"}
	}

	m := &Mesh{Vertices: make([]Vec3, 0, nv)}
	for i := 0; i < nv; i++ {
		fields, ok := next()
		if !ok || len(fields) <= xIdx || len(fields) <= yIdx || len(fields) <= zIdx {
			return nil, &ParseError{Format: "ply", Line: line, Msg: "truncated vertex list"}
		}
		v, err := parseVec3(fields[xIdx], fields[yIdx], fields[zIdx])
		if err != nil {
			return nil, &ParseError{Format: "ply", Line: line, Msg: "invalid vertex coordinate"}
		}
		m.Vertices = append(m.Vertices, v)
	}
	for i := 0; i < nf; i++ {
		fields, ok := next()
		if !ok || len(fields) < 1 {
			return nil, &ParseError{Format: "ply", Line: line, Msg: "truncated face list"}
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 || len(fields) < 1+n {
			return nil, &ParseError{Format: "ply", Line: line, Msg: "invalid face record"}
		}
		poly := make([]int, n)
		for j := 0; j < n; j++ {
			poly[j], err = strconv.Atoi(fields[1+j])
			if err != nil {
				return nil, &ParseError{Format: "ply", Line: line, Msg: "invalid face index"}
			}
		}
		m.Faces = triangulate(m.Faces, poly)
	}
	return m, nil
}
