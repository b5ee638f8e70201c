// Package postprocess - Postprocessing utilities for classifier outputs.
package postprocess

import "sort"

// Result represents a single class score.
type Result struct {
	// The class index into the label list.
	Class int
	// The probability of the class.
	Score float32
}

// Argmax returns the index of the highest score. Ties resolve to the lowest index.
//
// Arguments:
//   - scores: The probability vector.
//
// Returns:
//   - Result: The winning class and its score. Class is -1 for an empty vector.
func Argmax(scores []float32) Result {
	best := Result{Class: -1}
	for i, s := range scores {
		if best.Class < 0 || s > best.Score {
			best = Result{Class: i, Score: s}
		}
	}
	return best
}

// TopK returns the k highest scores in descending order. Equal scores keep index order.
func TopK(scores []float32, k int) []Result {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	results := make([]Result, len(scores))
	for i, s := range scores {
		results[i] = Result{Class: i, Score: s}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}
