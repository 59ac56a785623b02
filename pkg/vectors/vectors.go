package vectors

import (
	"math"

	"github.com/pkg/errors"
)

var ErrZeroMagnitude = errors.New("vector has zero magnitude")

// Cosine returns the cosine similarity of two equal-length vectors.
// Result is 0 for mismatched lengths or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales the vector in place to unit length.
func Normalize(v []float32) error {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return ErrZeroMagnitude
	}

	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return nil
}

// IsFinite reports whether every component is a finite number.
func IsFinite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
