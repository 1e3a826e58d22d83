package mesh

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// decodeOFF parses the Object File Format: an OFF header line, a count line
// (nv nf ne), nv vertex lines and nf polygon lines.
func decodeOFF(data []byte) (*Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if s == "" || strings.HasPrefix(s, "#") {
				continue
			}
			return strings.Fields(s), true
		}
		return nil, false
	}

	header, ok := next()
	if !ok {
		return nil, &ParseError{Format: "off", Line: line, Msg: "missing header"}
	}
	counts := header
	if strings.EqualFold(header[0], "OFF") {
		if len(header) > 1 {
			// Header and counts on one line ("OFF 8 6 12").
			counts = header[1:]
		} else if counts, ok = next(); !ok {
			return nil, &ParseError{Format: "off", Line: line, Msg: "missing count line"}
		}
	}
	if len(counts) < 2 {
		return nil, &ParseError{Format: "off", Line: line, Msg: "count line needs vertex and face counts"}
	}
	nv, err1 := strconv.Atoi(counts[0])
	nf, err2 := strconv.Atoi(counts[1])
	if err1 != nil || err2 != nil || nv < 0 || nf < 0 {
		return nil, &ParseError{Format: "off", Line: line, Msg: "invalid counts"}
	}

	m := &Mesh{Vertices: make([]Vec3, 0, nv)}
	for i := 0; i < nv; i++ {
		fields, ok := next()
		if !ok || len(fields) < 3 {
			return nil, &ParseError{Format: "off", Line: line, Msg: "truncated vertex list"}
		}
		v, err := parseVec3(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, &ParseError{Format: "off", Line: line, Msg: "invalid vertex coordinate"}
		}
		m.Vertices = append(m.Vertices, v)
	}
	for i := 0; i < nf; i++ {
		fields, ok := next()
		if !ok || len(fields) < 1 {
			return nil, &ParseError{Format: "off", Line: line, Msg: "truncated face list"}
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 || len(fields) < 1+n {
			return nil, &ParseError{Format: "off", Line: line, Msg: "invalid face record"}
		}
		poly := make([]int, n)
		for j := 0; j < n; j++ {
			poly[j], err = strconv.Atoi(fields[1+j])
			if err != nil {
				return nil, &ParseError{Format: "off", Line: line, Msg: "invalid face index"}
			}
		}
		m.Faces = triangulate(m.Faces, poly)
	}
	return m, nil
}
