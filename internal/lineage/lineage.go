// Package lineage reconstructs the dependency forest among a set of
// normalised LLM calls purely from context-prefix similarity: no session
// id, header, or other transport metadata is consulted.
package lineage

import (
	"math"
	"sort"

	"github.com/tjfontaine/llmtrace/internal/artifact"
)

// Assign sorts requests by timestamp (stable on id) and assigns each a
// ParentID via context-prefix similarity scoring against every
// earlier same-model request, or leaves it nil when no candidate clears
// the acceptance threshold (making it a new forest root).
func Assign(requests []*artifact.CookedRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].Timestamp != requests[j].Timestamp {
			return requests[i].Timestamp < requests[j].Timestamp
		}
		return requests[i].ID < requests[j].ID
	})

	for i, r := range requests {
		best, bestScore, found := bestCandidate(requests[:i], r)
		threshold := -0.5 * float64(len(r.RequestMessages))
		if found && bestScore >= threshold {
			id := best.ID
			r.ParentID = &id
		} else {
			r.ParentID = nil
		}
	}
}

// bestCandidate scans candidates from newest to oldest so that, among
// candidates tied for the maximum score, the one with the largest
// timestamp wins (only a strictly higher score replaces the incumbent).
func bestCandidate(candidates []*artifact.CookedRequest, r *artifact.CookedRequest) (*artifact.CookedRequest, float64, bool) {
	var best *artifact.CookedRequest
	bestScore := math.Inf(-1)
	found := false

	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		if c.Model != r.Model || !(c.Timestamp < r.Timestamp) {
			continue
		}
		score := candidateScore(c, r)
		if score > bestScore {
			bestScore = score
			best = c
			found = true
		}
	}
	return best, bestScore, found
}

// candidateScore is the total similarity score of candidate c as a parent
// of r: negative list-edit-distance between c's expected continuation
// prefix and r's actual request prefix, plus a tool-divergence penalty.
func candidateScore(c, r *artifact.CookedRequest) float64 {
	expectedPrefix := make([]string, 0, len(c.RequestMessages)+len(c.ResponseMessages))
	expectedPrefix = append(expectedPrefix, c.RequestMessages...)
	expectedPrefix = append(expectedPrefix, c.ResponseMessages...)

	msgScore := -float64(tokenEditDistance(expectedPrefix, r.RequestMessages))
	toolScore := -0.5 * float64(symmetricDiffSize(c.Tools, r.Tools))
	return msgScore + toolScore
}

func symmetricDiffSize(a, b []string) int {
	setA := toSet(a)
	setB := toSet(b)
	count := 0
	for k := range setA {
		if !setB[k] {
			count++
		}
	}
	for k := range setB {
		if !setA[k] {
			count++
		}
	}
	return count
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
