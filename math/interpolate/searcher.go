package interpolate

import (
	"fmt"
)

// searcher finds the bracketing interval of a point in a strictly
// monotonic sequence.
type searcher struct {
	xs     []float64
	x0, dx float64
	incr   bool
}

func (s *searcher) init(xs []float64) {
	n := len(xs)
	if n < 2 {
		panic("Interpolation table needs at least two points.")
	}
	s.xs = xs
	s.incr = xs[1] > xs[0]
	s.x0 = xs[0]
	s.dx = (xs[n-1] - xs[0]) / float64(n-1)
	for i := 0; i < n-1; i++ {
		if (xs[i+1] > xs[i]) != s.incr || xs[i+1] == xs[i] {
			panic("Interpolation table is not strictly monotonic.")
		}
	}
}

// search returns the index i such that x lies in [xs[i], xs[i+1]]. It
// panics if x is outside the table.
func (s *searcher) search(x float64) int {
	n := len(s.xs)
	if !s.inRange(x) {
		panic(fmt.Sprintf("Point %g out of interpolation bounds [%g, %g].",
			x, s.xs[0], s.xs[n-1]))
	}

	// Guess under the assumption of uniform spacing.
	guess := int((x - s.x0) / s.dx)
	if guess >= n-1 {
		guess = n - 2
	}
	if guess >= 0 && s.inside(guess, x) {
		return guess
	}

	i, j := 0, n-1
	for j-i > 1 {
		mid := (i + j) / 2
		if s.incr == (x >= s.xs[mid]) {
			i = mid
		} else {
			j = mid
		}
	}
	return i
}

// frac returns how far x is between xs[i] and xs[i+1].
func (s *searcher) frac(i int, x float64) float64 {
	return (x - s.xs[i]) / (s.xs[i+1] - s.xs[i])
}

func (s *searcher) inside(i int, x float64) bool {
	if s.incr {
		return s.xs[i] <= x && x <= s.xs[i+1]
	}
	return s.xs[i] >= x && x >= s.xs[i+1]
}

func (s *searcher) inRange(x float64) bool {
	lo, hi := s.xs[0], s.xs[len(s.xs)-1]
	if s.incr {
		return lo <= x && x <= hi
	}
	return hi <= x && x <= lo
}
