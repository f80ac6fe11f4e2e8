package fuzzy

import "sort"

// MatchResult contains the result of fuzzy matching.
type MatchResult struct {
	Input       string
	Match       string   // Best match (empty if none)
	Distance    int      // Edit distance to best match
	AutoCorrect bool     // True if close enough to auto-correct
	Suggestions []string // All candidates meeting threshold (best match included), ordered by increasing distance
}

// Match finds the best match for input among candidates.
// threshold is a similarity ratio (0.0-1.0) - higher means stricter matching.
// AutoCorrect is true if similarity >= threshold and exactly one candidate
// achieves the best distance; a tie between two equally-close candidates is
// reported as suggestions instead, since auto-correcting to the wrong one
// silently is worse than asking.
// Similarity is calculated as: 1 - (distance / max(len(input), len(match))).
func Match(input string, candidates []string, threshold float64) MatchResult {
	result := MatchResult{Input: input, Suggestions: []string{}}
	if input == "" || len(candidates) == 0 {
		return result
	}

	type scored struct {
		candidate string
		distance  int
	}
	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, scored{candidate: c, distance: Distance(input, c)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })

	best := scores[0]
	similarity := 1 - float64(best.distance)/float64(maxLen(input, best.candidate))
	if similarity < threshold {
		return result
	}

	result.Match = best.candidate
	result.Distance = best.distance

	tied := 1
	for _, s := range scores[1:] {
		if s.distance == best.distance {
			tied++
		}
	}

	for _, s := range scores {
		sim := 1 - float64(s.distance)/float64(maxLen(input, s.candidate))
		if sim >= threshold {
			result.Suggestions = append(result.Suggestions, s.candidate)
		}
	}

	result.AutoCorrect = tied == 1
	return result
}

func maxLen(a, b string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}

// SuggestCommand is a convenience wrapper with default threshold 0.8,
// tuned for the longer, more distinctive subcommand names.
func SuggestCommand(input string, commands []string) MatchResult {
	return Match(input, commands, 0.8)
}

// SuggestFlag is a convenience wrapper with default threshold 0.6, looser
// than SuggestCommand because flag names are frequently short abbreviations
// where a single edit is a larger fraction of the string.
func SuggestFlag(input string, flags []string) MatchResult {
	return Match(input, flags, 0.6)
}
