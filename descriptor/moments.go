package descriptor

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// pointMoments computes the ten moment features from a fresh surface sample:
// per-axis mean and standard deviation of the centered points (6), the
// normalized covariance eigenvalues in descending order (3), and the
// covariance trace (1).
func pointMoments(sampler *surfaceSampler, samples int, rng *rand.Rand) []float64 {
	pts := sampler.sample(samples, rng)
	n := float64(len(pts))

	var cx, cy, cz float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
		cz += p.Z
	}
	cx /= n
	cy /= n
	cz /= n

	centered := make([][3]float64, len(pts))
	for i, p := range pts {
		centered[i] = [3]float64{p.X - cx, p.Y - cy, p.Z - cz}
	}

	out := make([]float64, 0, momentCount)
	for axis := 0; axis < 3; axis++ {
		var sum, sumSq float64
		for _, c := range centered {
			sum += c[axis]
			sumSq += c[axis] * c[axis]
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		out = append(out, mean, math.Sqrt(variance))
	}

	cov := covariance(centered)
	sym := mat.NewSymDense(3, []float64{
		cov[0][0], cov[0][1], cov[0][2],
		cov[0][1], cov[1][1], cov[1][2],
		cov[0][2], cov[1][2], cov[2][2],
	})

	var eig mat.EigenSym
	eigvals := make([]float64, 3)
	if eig.Factorize(sym, false) {
		eig.Values(eigvals)
	}
	// Values come back ascending; the layout wants descending.
	eigvals[0], eigvals[2] = eigvals[2], eigvals[0]
	var eigSum float64
	for _, v := range eigvals {
		eigSum += v
	}
	for _, v := range eigvals {
		out = append(out, v/(eigSum+eps))
	}

	out = append(out, cov[0][0]+cov[1][1]+cov[2][2])
	return out
}

// covariance is the sample covariance (n-1 denominator) of centered points.
func covariance(pts [][3]float64) [3][3]float64 {
	var cov [3][3]float64
	if len(pts) < 2 {
		return cov
	}
	for _, p := range pts {
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov[i][j] += p[i] * p[j]
			}
		}
	}
	inv := 1 / float64(len(pts)-1)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov[i][j] *= inv
			cov[j][i] = cov[i][j]
		}
	}
	return cov
}
