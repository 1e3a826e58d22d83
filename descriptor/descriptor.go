// Package descriptor turns a normalized triangle mesh into a fixed-length
// numeric signature suitable for similarity search.
//
// The 83-dimensional layout is a wire contract shared by every extractor and
// index in the system:
//
//	[0:64)   D2 shape distribution (pairwise surface distance histogram)
//	[64:69)  basic statistics (volume, area, compactness, aspect, edge density)
//	[69:72)  bounding box ratios
//	[72]     convexity
//	[73:83)  point distribution moments
//
// Extraction is deterministic given a fixed random source; callers that need
// reproducible descriptors inject a seed or a *rand.Rand.
package descriptor

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/shapeseek/shapeseek/mesh"
)

// Layout of the descriptor vector.
const (
	D2Bins      = 64
	basicCount  = 5
	bboxCount   = 3
	momentCount = 10

	// Dim is the total descriptor dimensionality.
	Dim = D2Bins + basicCount + bboxCount + 1 + momentCount

	d2Offset        = 0
	basicOffset     = d2Offset + D2Bins
	bboxOffset      = basicOffset + basicCount
	convexityOffset = bboxOffset + bboxCount
	momentOffset    = convexityOffset + 1
)

// ErrInsufficientGeometry is returned when a mesh carries too little geometry
// for feature computation (fewer than 3 vertices, or no surface to sample).
var ErrInsufficientGeometry = errors.New("descriptor: insufficient geometry")

const eps = 1e-10

// Options configures an Extractor.
type Options struct {
	// SurfaceSamples is the number of surface points drawn for the D2
	// distribution.
	SurfaceSamples int

	// MomentSamples is the number of surface points drawn (independently)
	// for the moment features.
	MomentSamples int

	// Seed seeds a fresh random source per extraction. Zero means a
	// time-based seed (non-reproducible).
	Seed int64

	// Rand, when set, is used directly and takes precedence over Seed.
	// A shared *rand.Rand is not safe for concurrent extractions.
	Rand *rand.Rand
}

// DefaultOptions are the extraction defaults.
var DefaultOptions = Options{
	SurfaceSamples: 10000,
	MomentSamples:  5000,
}

// WithSeed makes extraction deterministic.
func WithSeed(seed int64) func(o *Options) {
	return func(o *Options) { o.Seed = seed }
}

// WithRand injects an explicit random source.
func WithRand(r *rand.Rand) func(o *Options) {
	return func(o *Options) { o.Rand = r }
}

// WithSurfaceSamples overrides the D2 surface sample count.
func WithSurfaceSamples(n int) func(o *Options) {
	return func(o *Options) { o.SurfaceSamples = n }
}

// WithMomentSamples overrides the moment surface sample count.
func WithMomentSamples(n int) func(o *Options) {
	return func(o *Options) { o.MomentSamples = n }
}

// Extractor computes descriptor vectors from normalized meshes.
type Extractor struct {
	opts Options
}

// New creates an Extractor. Sample counts below 2 cannot form a distance
// pair or a covariance and are raised to 2.
func New(optFns ...func(o *Options)) *Extractor {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SurfaceSamples < 2 {
		opts.SurfaceSamples = 2
	}
	if opts.MomentSamples < 2 {
		opts.MomentSamples = 2
	}
	return &Extractor{opts: opts}
}

func (e *Extractor) rng() *rand.Rand {
	if e.opts.Rand != nil {
		return e.opts.Rand
	}
	seed := e.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Extract computes the 83-dimensional, unit-L2-norm descriptor of m.
// The mesh is expected to be normalized (see mesh.Normalize); extraction
// itself never mutates it.
func (e *Extractor) Extract(m *mesh.Mesh) ([]float32, error) {
	return e.extractWith(m, e.rng())
}

func (e *Extractor) extractWith(m *mesh.Mesh, rng *rand.Rand) ([]float32, error) {
	if m.VertexCount() < 3 || m.FaceCount() == 0 {
		return nil, ErrInsufficientGeometry
	}

	sampler, err := newSurfaceSampler(m)
	if err != nil {
		return nil, err
	}

	watertight := m.IsWatertight()

	features := make([]float64, 0, Dim)
	features = append(features, d2Distribution(sampler, e.opts.SurfaceSamples, rng)...)
	features = append(features, basicFeatures(m, watertight)...)
	features = append(features, bboxRatios(m)...)
	features = append(features, convexity(m, watertight))
	features = append(features, pointMoments(sampler, e.opts.MomentSamples, rng)...)

	vec := make([]float32, Dim)
	for i, f := range features {
		vec[i] = float32(f)
	}
	normalizeL2(vec)
	return vec, nil
}

// normalizeL2 scales vec to unit length; a zero vector is left unchanged.
func normalizeL2(vec []float32) {
	var norm2 float64
	for _, v := range vec {
		norm2 += float64(v) * float64(v)
	}
	if norm2 == 0 {
		return
	}
	inv := 1 / math.Sqrt(norm2)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
