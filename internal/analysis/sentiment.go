package analysis

import "strings"

var positiveMarkers = []string{
	"love", "great", "excellent", "easy", "helpful", "saves", "perfect",
	"amazing", "works well", "happy", "enjoy",
}

var negativeMarkers = []string{
	"hate", "frustrating", "frustrated", "difficult", "annoying", "waste",
	"expensive", "terrible", "awful", "struggle", "painful", "broken",
}

// ScoreSentiment estimates sentiment in [-1, 1] from marker occurrences.
// Returns nil when the text carries no markers at all, so unscored turns stay
// distinguishable from genuinely neutral ones.
func ScoreSentiment(text string) *float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, m := range positiveMarkers {
		pos += strings.Count(lower, m)
	}
	for _, m := range negativeMarkers {
		neg += strings.Count(lower, m)
	}
	if pos+neg == 0 {
		return nil
	}
	score := float64(pos-neg) / float64(pos+neg)
	return &score
}
