package descriptor

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shapeseek/shapeseek/mesh"
)

// ExtractBatch extracts descriptors for all meshes concurrently, bounded by
// parallelism (values < 1 mean unbounded). Results are positionally aligned
// with the input. Each extraction gets its own random source derived from the
// configured seed, so a seeded batch is reproducible regardless of
// scheduling; an injected Rand is ignored here because it cannot be shared
// across goroutines.
func (e *Extractor) ExtractBatch(ctx context.Context, meshes []*mesh.Mesh, parallelism int) ([][]float32, error) {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	base := e.opts.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	out := make([][]float32, len(meshes))
	for i, m := range meshes {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vec, err := e.extractWith(m, rand.New(rand.NewSource(base+int64(i)+1)))
			if err != nil {
				return err
			}
			out[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
