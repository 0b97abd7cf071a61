package embed

import "math"

// Normalize returns v scaled to unit length. Stored chunk vectors and
// query vectors are both normalized at the edge, so similarity search
// can use a plain dot product as cosine similarity.
//
// The input is never mutated. A zero or empty vector has no direction;
// an empty input comes back as-is and an all-zero input comes back as a
// fresh all-zero slice.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sumSquares == 0 {
		return out
	}

	inv := float32(1 / math.Sqrt(sumSquares))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
