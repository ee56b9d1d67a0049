package facematch

import "math"

// EuclideanDistance computes the L2 distance between two vectors of equal length.
// Accumulation happens in float64 so results are stable across call sites.
func EuclideanDistance(a, b Vector) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
