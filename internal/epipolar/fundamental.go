// Package epipolar implements the optional geometric outlier gate: a
// RANSAC-estimated fundamental matrix over the propagated correspondences,
// rejecting points inconsistent with a single rigid camera motion.
package epipolar

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RANSAC tuning.
const (
	// sampleSize is the minimal correspondence set of the 8-point algorithm.
	sampleSize = 8
	// maxIterations caps the RANSAC sampling loop.
	maxIterations = 500
	// confidence is the target probability of having drawn one
	// outlier-free sample.
	confidence = 0.99
)

// Point is one 2D point on the virtual undistorted image plane.
type Point struct {
	X, Y float64
}

// ransacFundamental estimates a fundamental matrix between two point sets
// with 8-point RANSAC and returns the per-pair inlier flags. threshold is the
// Sampson distance cutoff in pixels. Both slices must have equal length of at
// least sampleSize.
func ransacFundamental(a, b []Point, threshold float64, rng *rand.Rand) ([]bool, error) {
	n := len(a)
	if len(b) != n {
		return nil, fmt.Errorf("epipolar: mismatched point sets (%d vs %d)", n, len(b))
	}
	if n < sampleSize {
		return nil, fmt.Errorf("epipolar: need at least %d correspondences, got %d", sampleSize, n)
	}

	bestInliers := 0
	var bestMask []bool

	iters := maxIterations
	for it := 0; it < iters; it++ {
		sa, sb := samplePairs(a, b, rng)
		F, ok := eightPoint(sa, sb)
		if !ok {
			continue
		}
		mask, count := scoreInliers(F, a, b, threshold)
		if count > bestInliers {
			bestInliers = count
			bestMask = mask

			// Shrink the iteration budget as the inlier ratio firms up.
			w := float64(count) / float64(n)
			if denom := math.Log(1 - math.Pow(w, sampleSize)); denom < 0 {
				if need := int(math.Ceil(math.Log(1-confidence) / denom)); need < iters {
					iters = need
				}
			}
		}
	}
	if bestMask == nil {
		return nil, fmt.Errorf("epipolar: degenerate correspondence set")
	}

	// Refit on the consensus set for a tighter final inlier classification.
	var ia, ib []Point
	for i, in := range bestMask {
		if in {
			ia = append(ia, a[i])
			ib = append(ib, b[i])
		}
	}
	if len(ia) >= sampleSize {
		if F, ok := eightPoint(ia, ib); ok {
			if mask, count := scoreInliers(F, a, b, threshold); count >= bestInliers {
				bestMask = mask
			}
		}
	}
	return bestMask, nil
}

// samplePairs draws a minimal sample of distinct correspondence pairs.
func samplePairs(a, b []Point, rng *rand.Rand) ([]Point, []Point) {
	idx := rng.Perm(len(a))[:sampleSize]
	sa := make([]Point, sampleSize)
	sb := make([]Point, sampleSize)
	for i, j := range idx {
		sa[i] = a[j]
		sb[i] = b[j]
	}
	return sa, sb
}

// eightPoint runs the normalized 8-point algorithm. Returns false when the
// design matrix is degenerate (collinear or coincident points).
func eightPoint(a, b []Point) (*mat.Dense, bool) {
	na, ta := normalize(a)
	nb, tb := normalize(b)

	n := len(a)
	A := mat.NewDense(n, 9, nil)
	for i := 0; i < n; i++ {
		x1, y1 := na[i].X, na[i].Y
		x2, y2 := nb[i].X, nb[i].Y
		A.SetRow(i, []float64{
			x2 * x1, x2 * y1, x2,
			y2 * x1, y2 * y1, y2,
			x1, y1, 1,
		})
	}

	// Full SVD: the minimal 8-row system still needs all nine right singular
	// vectors for the null space.
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDFull) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	if v.RawMatrix().Cols < 9 {
		return nil, false
	}

	// The null-space direction is the right singular vector of the smallest
	// singular value.
	f := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			f.Set(i, j, v.At(3*i+j, 8))
		}
	}

	// Enforce rank 2.
	var fsvd mat.SVD
	if !fsvd.Factorize(f, mat.SVDFull) {
		return nil, false
	}
	var u, fv mat.Dense
	fsvd.UTo(&u)
	fsvd.VTo(&fv)
	s := fsvd.Values(nil)
	d := mat.NewDense(3, 3, nil)
	d.Set(0, 0, s[0])
	d.Set(1, 1, s[1])

	var tmp, F mat.Dense
	tmp.Mul(&u, d)
	F.Mul(&tmp, fv.T())

	// Denormalize: F = Tb^T * Fn * Ta.
	var left, out mat.Dense
	left.Mul(tb.T(), &F)
	out.Mul(&left, ta)
	return &out, true
}

// normalize applies Hartley normalization: centroid at the origin, mean
// distance sqrt(2). Returns the transformed points and the transform.
func normalize(pts []Point) ([]Point, *mat.Dense) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	cx /= n
	cy /= n

	var meanDist float64
	for _, p := range pts {
		dx, dy := p.X-cx, p.Y-cy
		meanDist += math.Hypot(dx, dy)
	}
	meanDist /= n

	scale := 1.0
	if meanDist > 1e-12 {
		scale = math.Sqrt2 / meanDist
	}

	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: (p.X - cx) * scale, Y: (p.Y - cy) * scale}
	}
	t := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * cx,
		0, scale, -scale * cy,
		0, 0, 1,
	})
	return out, t
}

// scoreInliers classifies each correspondence by its Sampson distance to the
// epipolar geometry.
func scoreInliers(F *mat.Dense, a, b []Point, threshold float64) ([]bool, int) {
	mask := make([]bool, len(a))
	count := 0
	t2 := threshold * threshold
	for i := range a {
		if sampsonSq(F, a[i], b[i]) <= t2 {
			mask[i] = true
			count++
		}
	}
	return mask, count
}

// sampsonSq is the squared Sampson distance of the pair (a, b) under F.
func sampsonSq(F *mat.Dense, a, b Point) float64 {
	// l2 = F * a, l1 = F^T * b.
	l2x := F.At(0, 0)*a.X + F.At(0, 1)*a.Y + F.At(0, 2)
	l2y := F.At(1, 0)*a.X + F.At(1, 1)*a.Y + F.At(1, 2)
	l2z := F.At(2, 0)*a.X + F.At(2, 1)*a.Y + F.At(2, 2)

	l1x := F.At(0, 0)*b.X + F.At(1, 0)*b.Y + F.At(2, 0)
	l1y := F.At(0, 1)*b.X + F.At(1, 1)*b.Y + F.At(2, 1)

	num := b.X*l2x + b.Y*l2y + l2z
	den := l2x*l2x + l2y*l2y + l1x*l1x + l1y*l1y
	if den < 1e-18 {
		return math.Inf(1)
	}
	return num * num / den
}
