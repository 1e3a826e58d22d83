package descriptor

import (
	"math"
	"math/rand"

	"github.com/shapeseek/shapeseek/mesh"
)

// d2Distribution computes the D2 shape distribution: a normalized density
// histogram of Euclidean distances between random surface point pairs.
func d2Distribution(sampler *surfaceSampler, samples int, rng *rand.Rand) []float64 {
	pts := sampler.sample(samples, rng)

	pairs := samples / 2
	if pairs > 5000 {
		pairs = 5000
	}
	dists := make([]float64, pairs)
	for i := range dists {
		a := pts[rng.Intn(len(pts))]
		b := pts[rng.Intn(len(pts))]
		dists[i] = a.Sub(b).Norm()
	}

	lo, hi := dists[0], dists[0]
	for _, d := range dists[1:] {
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi == lo {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / D2Bins
	counts := make([]float64, D2Bins)
	for _, d := range dists {
		bin := int((d - lo) / width)
		if bin >= D2Bins {
			bin = D2Bins - 1
		}
		counts[bin]++
	}

	hist := make([]float64, D2Bins)
	var sum float64
	for i, c := range counts {
		hist[i] = c / (float64(pairs) * width)
		sum += hist[i]
	}
	for i := range hist {
		hist[i] /= sum + eps
	}
	return hist
}

// basicFeatures computes the five scalar shape statistics. Volume-derived
// values are only trusted on watertight meshes.
func basicFeatures(m *mesh.Mesh, watertight bool) []float64 {
	var volume float64
	if watertight {
		volume = m.Volume()
	}
	area := m.SurfaceArea()

	var compactness float64
	if watertight && volume > 0 {
		compactness = math.Cbrt(36*math.Pi*volume*volume) / (area + eps)
	}

	ext := m.Extents()
	minExt, maxExt := ext[0], ext[0]
	for _, e := range ext[1:] {
		if e < minExt {
			minExt = e
		}
		if e > maxExt {
			maxExt = e
		}
	}
	aspect := 1.0
	if minExt > 0 {
		aspect = maxExt / minExt
	}

	edgeDensity := float64(m.EdgeCount()) / float64(m.VertexCount()+1)

	return []float64{
		math.Log10(volume + eps),
		math.Log10(area + eps),
		compactness,
		math.Log10(aspect + 1),
		math.Log10(edgeDensity + 1),
	}
}

// bboxRatios computes the three axis-aligned bounding box extent ratios.
func bboxRatios(m *mesh.Mesh) []float64 {
	ext := m.Extents()
	e0 := ext[0] + eps
	e1 := ext[1] + eps
	e2 := ext[2] + eps
	return []float64{e0 / e1, e1 / e2, e0 / e2}
}

// convexity is the ratio of mesh volume to convex hull volume, clamped to
// [0, 1]. Non-watertight meshes and hull failures yield the neutral 0.5.
func convexity(m *mesh.Mesh, watertight bool) float64 {
	if !watertight {
		return 0.5
	}
	hull, err := mesh.ConvexHull(m)
	if err != nil {
		return 0.5
	}
	hullVolume := hull.Volume()
	if hullVolume == 0 {
		return 1.0
	}
	c := m.Volume() / hullVolume
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
