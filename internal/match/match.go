// Package match scores biometric embedding vectors against each other.
// Scores are cosine similarities, so identical vectors score 1 and
// opposite vectors score -1.
package match

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch means the two vectors cannot be compared at all.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")
	// ErrZeroMagnitude means at least one vector is empty or all zeros.
	ErrZeroMagnitude = errors.New("embedding has zero magnitude")
)

// Score computes the cosine similarity between two embedding vectors.
// Returns a value between -1 (opposite) and 1 (identical).
func Score(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity, nil
}

// Decide scores two embedding vectors and applies a similarity threshold.
// The comparison passes when the score reaches the threshold.
func Decide(a, b []float32, threshold float64) (bool, float64, error) {
	score, err := Score(a, b)
	if err != nil {
		return false, 0, err
	}

	return score >= threshold, score, nil
}
