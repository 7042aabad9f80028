package session

import "strings"

// FallbackTag is assigned when no keyword matches, so a turn's tag set is
// never empty.
const FallbackTag = "general"

// tagKeywords maps theme tags to their trigger keywords. Kept as an ordered
// slice so extracted tag order is deterministic across runs.
var tagKeywords = []struct {
	tag      string
	keywords []string
}{
	{"pricing", []string{"price", "cost", "expensive", "cheap", "budget", "afford"}},
	{"time_management", []string{"time", "hours", "quickly", "slow", "efficient"}},
	{"workflow", []string{"process", "workflow", "steps", "procedure", "system"}},
	{"collaboration", []string{"team", "colleagues", "share", "together", "group"}},
	{"technology", []string{"tool", "software", "app", "platform", "system"}},
	{"customer_service", []string{"support", "help", "service", "assistance"}},
	{"quality", []string{"quality", "good", "bad", "excellent", "poor"}},
	{"frustration", []string{"frustrating", "annoying", "difficult", "problem", "issue"}},
	{"satisfaction", []string{"happy", "satisfied", "pleased", "love", "great"}},
}

// extractTags matches the combined question and answer text against the
// keyword table, case-insensitively. Follow-up text is included when present.
func extractTags(question, answer, followUpAnswer string) []string {
	text := strings.ToLower(question + " " + answer + " " + followUpAnswer)

	var tags []string
	for _, entry := range tagKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{FallbackTag}
	}
	return tags
}
