// Package combiner expands per-position alternative lists into concrete
// n-grams.
package combiner

import "github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"

// Combine returns the cartesian product of the alternatives, first position
// varying slowest. A single position yields one n-gram per alternative. An
// empty position produces no combinations.
func Combine(positions [][]string) []model.NGram {
	if len(positions) == 0 {
		return nil
	}
	total := 1
	for _, alts := range positions {
		total *= len(alts)
	}
	if total == 0 {
		return nil
	}

	out := make([]model.NGram, 0, total)
	current := make(model.NGram, len(positions))
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(positions) {
			out = append(out, append(model.NGram(nil), current...))
			return
		}
		for _, alt := range positions[depth] {
			current[depth] = alt
			walk(depth + 1)
		}
	}
	walk(0)
	return out
}
