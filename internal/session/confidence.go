package session

import "strings"

// Confidence heuristic constants. The score measures how assertive and
// detailed an answer reads, not factual correctness.
const (
	baseConfidence = 0.7
	minConfidence  = 0.1
	maxConfidence  = 1.0
)

var certainMarkers = []string{"specifically", "exactly", "always", "never"}

var uncertainMarkers = []string{"maybe", "perhaps", "not sure", "might"}

// scoreConfidence rates an answer: 0.7 base, +0.1 for each length threshold
// (100, 200 chars), +0.05 for an overtly certain marker, -0.1 for an overtly
// uncertain marker, clamped to [0.1, 1.0].
func scoreConfidence(answer string) float64 {
	score := baseConfidence

	if len(answer) > 100 {
		score += 0.1
	}
	if len(answer) > 200 {
		score += 0.1
	}

	lower := strings.ToLower(answer)
	if containsAny(lower, certainMarkers) {
		score += 0.05
	}
	if containsAny(lower, uncertainMarkers) {
		score -= 0.1
	}

	return clamp(score)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	if score < minConfidence {
		return minConfidence
	}
	if score > maxConfidence {
		return maxConfidence
	}
	return score
}
