package lineage

import "github.com/agnivade/levenshtein"

// tokenEditDistance computes the list-level edit distance (unit-cost
// insert/delete/substitute, whole elements compared by equality) between
// two sequences of message ids. It reuses agnivade/levenshtein's rune-level
// implementation by first mapping each distinct id appearing in either
// sequence to its own rune: once every token is exactly one rune, rune-level
// edit distance over the encoded strings is exactly the list-level edit
// distance over the original token sequences.
func tokenEditDistance(a, b []string) int {
	alphabet := make(map[string]rune)
	var next rune = 0xE000 // Unicode Private Use Area, never collides with real text

	encode := func(ids []string) []rune {
		out := make([]rune, len(ids))
		for i, id := range ids {
			r, ok := alphabet[id]
			if !ok {
				r = next
				alphabet[id] = r
				next++
			}
			out[i] = r
		}
		return out
	}

	return levenshtein.ComputeDistance(string(encode(a)), string(encode(b)))
}
