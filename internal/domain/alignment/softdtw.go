// Package alignment computes Soft-DTW distances between embedding sequences.
//
// The forward pass uses a smoothed minimum controlled by gamma. The optional
// path is recovered with a hard argmin over the same three predecessors
// (diagonal first, then up, then left), so for larger gamma the reported path
// is an approximation and need not be the path that dominates the distance.
package alignment

import (
	"fmt"
	"math"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/similarity"
	"github.com/okian/careerrank/internal/domain/types"
)

// DefaultGamma is the smoothing used when a request does not set one.
const DefaultGamma = 0.1

type step uint8

const (
	stepDiagonal step = iota
	stepUp
	stepLeft
)

// Result is the outcome of aligning two sequences.
type Result struct {
	// Distance is the Soft-DTW distance, never negative.
	Distance float64
	// Path is nil unless a trace was requested.
	Path []types.AlignmentStep
}

// SoftDTW aligns x (the user's sequence) against y (a candidate's sequence).
// Both sequences must be non-empty and share one dimension.
func SoftDTW(x, y model.Sequence, gamma float64, trace bool) (Result, error) {
	if len(x) == 0 || len(y) == 0 {
		return Result{}, ErrEmptySequence
	}
	if !(gamma > 0) || math.IsInf(gamma, 1) {
		return Result{}, fmt.Errorf("gamma %v: %w", gamma, ErrInvalidGamma)
	}

	m, n := len(x), len(y)
	cost, err := costMatrix(x, y)
	if err != nil {
		return Result{}, err
	}

	// r is (m+1) x (n+1), row-major.
	w := n + 1
	r := make([]float64, (m+1)*w)
	for i := range r {
		r[i] = math.Inf(1)
	}
	r[0] = 0

	var dirs []step
	if trace {
		dirs = make([]step, (m+1)*w)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			diag := r[(i-1)*w+j-1]
			up := r[(i-1)*w+j]
			left := r[i*w+j-1]
			r[i*w+j] = cost[(i-1)*n+j-1] + softmin(diag, up, left, gamma)
			if trace {
				dirs[i*w+j] = argmin(diag, up, left)
			}
		}
	}

	res := Result{Distance: math.Max(0, r[m*w+n])}
	if trace {
		res.Path = backtrack(dirs, cost, m, n)
	}
	return res, nil
}

// Similarity maps a distance in [0,inf) to (0,1].
func Similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

func costMatrix(x, y model.Sequence) ([]float64, error) {
	n := len(y)
	cost := make([]float64, len(x)*n)
	for i := range x {
		for j := range y {
			d, err := similarity.Distance(x[i], y[j])
			if err != nil {
				return nil, fmt.Errorf("cost[%d][%d]: %w", i, j, err)
			}
			cost[i*n+j] = d
		}
	}
	return cost, nil
}

// softmin is -gamma*ln(sum(exp(-v/gamma))) evaluated around the minimum so
// that small gamma does not underflow every term to zero.
func softmin(a, b, c, gamma float64) float64 {
	mn := math.Min(a, math.Min(b, c))
	if math.IsInf(mn, 1) {
		return mn
	}
	sum := math.Exp(-(a-mn)/gamma) + math.Exp(-(b-mn)/gamma) + math.Exp(-(c-mn)/gamma)
	return mn - gamma*math.Log(sum)
}

func argmin(diag, up, left float64) step {
	best, dir := diag, stepDiagonal
	if up < best {
		best, dir = up, stepUp
	}
	if left < best {
		dir = stepLeft
	}
	return dir
}

func backtrack(dirs []step, cost []float64, m, n int) []types.AlignmentStep {
	w := n + 1
	path := make([]types.AlignmentStep, 0, m+n-1)
	i, j := m, n
	for i > 0 && j > 0 {
		path = append(path, types.AlignmentStep{
			UserIndex:      i - 1,
			CandidateIndex: j - 1,
			PairDistance:   cost[(i-1)*n+j-1],
		})
		switch dirs[i*w+j] {
		case stepDiagonal:
			i--
			j--
		case stepUp:
			i--
		case stepLeft:
			j--
		}
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
