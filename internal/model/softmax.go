package model

import (
	"github.com/chewxy/math32"
)

// Softmax returns the probability distribution for scores. The maximum is
// subtracted before exponentiation so large logits do not overflow.
func Softmax(scores []float32) []float32 {
	if len(scores) == 0 {
		return nil
	}

	peak := scores[0]
	for _, s := range scores[1:] {
		if s > peak {
			peak = s
		}
	}

	probs := make([]float32, len(scores))
	var sum float32
	for i, s := range scores {
		probs[i] = math32.Exp(s - peak)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Argmax returns the index and value of the largest element. Ties go to the
// lowest index. It returns -1 for an empty slice.
func Argmax(values []float32) (int, float32) {
	if len(values) == 0 {
		return -1, 0
	}
	idx, best := 0, values[0]
	for i, v := range values[1:] {
		if v > best {
			idx, best = i+1, v
		}
	}
	return idx, best
}

func finite(values []float32) bool {
	for _, v := range values {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}
