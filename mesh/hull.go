package mesh

import (
	"errors"
	"math"
)

// ErrDegenerateHull is returned when the input points do not span three
// dimensions and no convex hull volume exists.
var ErrDegenerateHull = errors.New("mesh: degenerate convex hull input")

const hullEps = 1e-10

// ConvexHull computes the convex hull of the mesh vertices using the
// quickhull algorithm and returns it as a new, consistently oriented Mesh.
func ConvexHull(m *Mesh) (*Mesh, error) {
	return convexHull(m.Vertices)
}

type hullFace struct {
	v       [3]int
	normal  Vec3
	offset  float64 // plane equation: normal·x = offset
	outside []int   // candidate points strictly above the plane
	alive   bool
}

func (f *hullFace) above(p Vec3) bool {
	return f.normal.Dot(p)-f.offset > hullEps
}

func convexHull(points []Vec3) (*Mesh, error) {
	if len(points) < 4 {
		return nil, ErrDegenerateHull
	}

	i0, i1, i2, i3, err := initialSimplex(points)
	if err != nil {
		return nil, err
	}

	interior := points[i0].Add(points[i1]).Add(points[i2]).Add(points[i3]).Scale(0.25)

	var faces []*hullFace
	addFace := func(a, b, c int) *hullFace {
		f := &hullFace{v: [3]int{a, b, c}, alive: true}
		n := points[b].Sub(points[a]).Cross(points[c].Sub(points[a]))
		f.normal = n
		f.offset = n.Dot(points[a])
		// Orient outward relative to the interior point.
		if f.normal.Dot(interior)-f.offset > 0 {
			f.v = [3]int{a, c, b}
			f.normal = f.normal.Scale(-1)
			f.offset = -f.offset
		}
		faces = append(faces, f)
		return f
	}

	addFace(i0, i1, i2)
	addFace(i0, i1, i3)
	addFace(i0, i2, i3)
	addFace(i1, i2, i3)

	assign := func(fs []*hullFace, idxs []int) {
		for _, pi := range idxs {
			for _, f := range fs {
				if f.alive && f.above(points[pi]) {
					f.outside = append(f.outside, pi)
					break
				}
			}
		}
	}
	all := make([]int, 0, len(points))
	for i := range points {
		if i != i0 && i != i1 && i != i2 && i != i3 {
			all = append(all, i)
		}
	}
	assign(faces, all)

	for {
		// Pick any live face with outside points, then its farthest point.
		var cur *hullFace
		for _, f := range faces {
			if f.alive && len(f.outside) > 0 {
				cur = f
				break
			}
		}
		if cur == nil {
			break
		}
		far, farDist := -1, 0.0
		for _, pi := range cur.outside {
			if d := cur.normal.Dot(points[pi]) - cur.offset; far < 0 || d > farDist {
				far, farDist = pi, d
			}
		}

		// Collect all faces visible from the apex and the orphaned points.
		var orphans []int
		visible := make(map[*hullFace]bool)
		for _, f := range faces {
			if f.alive && f.above(points[far]) {
				visible[f] = true
			}
		}
		type dirEdge struct{ a, b int }
		horizon := make(map[dirEdge]bool)
		for f := range visible {
			f.alive = false
			orphans = append(orphans, f.outside...)
			f.outside = nil
			for i := 0; i < 3; i++ {
				a, b := f.v[i], f.v[(i+1)%3]
				// A horizon edge is shared with exactly one hidden face;
				// cancel out edges interior to the visible region.
				if horizon[dirEdge{b, a}] {
					delete(horizon, dirEdge{b, a})
				} else {
					horizon[dirEdge{a, b}] = true
				}
			}
		}

		var created []*hullFace
		for e := range horizon {
			created = append(created, addFace(e.a, e.b, far))
		}
		filtered := orphans[:0]
		for _, pi := range orphans {
			if pi != far {
				filtered = append(filtered, pi)
			}
		}
		assign(created, filtered)
	}

	return compactHull(points, faces), nil
}

// initialSimplex picks four points spanning a non-degenerate tetrahedron.
func initialSimplex(points []Vec3) (int, int, int, int, error) {
	// Farthest pair along the coordinate axes.
	i0, i1 := 0, 0
	best := -1.0
	for axis := 0; axis < 3; axis++ {
		lo, hi := 0, 0
		for i, p := range points {
			a := axisValue(p, axis)
			if a < axisValue(points[lo], axis) {
				lo = i
			}
			if a > axisValue(points[hi], axis) {
				hi = i
			}
		}
		if d := points[hi].Sub(points[lo]).Norm(); d > best {
			best, i0, i1 = d, lo, hi
		}
	}
	if best <= hullEps {
		return 0, 0, 0, 0, ErrDegenerateHull
	}

	// Farthest point from the line i0-i1.
	dir := points[i1].Sub(points[i0])
	i2, best := -1, hullEps
	for i, p := range points {
		if d := dir.Cross(p.Sub(points[i0])).Norm(); d > best {
			best, i2 = d, i
		}
	}
	if i2 < 0 {
		return 0, 0, 0, 0, ErrDegenerateHull
	}

	// Farthest point from the plane i0-i1-i2.
	n := dir.Cross(points[i2].Sub(points[i0]))
	i3, best := -1, hullEps
	for i, p := range points {
		if d := math.Abs(n.Dot(p.Sub(points[i0]))) / n.Norm(); d > best {
			best, i3 = d, i
		}
	}
	if i3 < 0 {
		return 0, 0, 0, 0, ErrDegenerateHull
	}
	return i0, i1, i2, i3, nil
}

func axisValue(v Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// compactHull rebuilds the surviving faces against a minimal vertex list.
func compactHull(points []Vec3, faces []*hullFace) *Mesh {
	remap := make(map[int]int)
	out := &Mesh{}
	idx := func(i int) int {
		if j, ok := remap[i]; ok {
			return j
		}
		j := len(out.Vertices)
		out.Vertices = append(out.Vertices, points[i])
		remap[i] = j
		return j
	}
	for _, f := range faces {
		if f.alive {
			out.Faces = append(out.Faces, [3]int{idx(f.v[0]), idx(f.v[1]), idx(f.v[2])})
		}
	}
	return out
}
