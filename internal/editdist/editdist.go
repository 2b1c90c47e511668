// Package editdist computes edit distances between label sequences.
package editdist

// Levenshtein returns the minimum number of insertions, deletions and
// substitutions that turn a into b.
//
// Two rows of the dynamic programming table are kept; the shorter input
// indexes the row so memory is O(min(len(a), len(b))).
func Levenshtein[T comparable](a, b []T) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := len(a)
	current := make([]int, n+1)
	previous := make([]int, n+1)
	for k := range current {
		current[k] = k
	}
	for i := 1; i <= len(b); i++ {
		previous, current = current, previous
		current[0] = i
		for j := 1; j <= n; j++ {
			add := previous[j] + 1
			del := current[j-1] + 1
			change := previous[j-1]
			if a[j-1] != b[i-1] {
				change++
			}
			current[j] = min(add, del, change)
		}
	}
	return current[n]
}

// ErrorRate returns the edit distance between pred and truth divided by the
// length of truth. An empty truth counts as length one.
func ErrorRate[T comparable](pred, truth []T) float64 {
	return float64(Levenshtein(pred, truth)) / float64(max(1, len(truth)))
}
