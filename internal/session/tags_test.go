package session

import (
	"reflect"
	"testing"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name     string
		question string
		answer   string
		followUp string
		want     []string
	}{
		{
			name:     "no keyword falls back to general",
			question: "Tell me more.",
			answer:   "Nothing in particular.",
			want:     []string{"general"},
		},
		{
			name:     "pricing keyword",
			question: "Anything else?",
			answer:   "The cost is too high for us.",
			want:     []string{"pricing"},
		},
		{
			name:     "case insensitive",
			question: "",
			answer:   "The BUDGET is the blocker.",
			want:     []string{"pricing"},
		},
		{
			name:     "keyword in question counts",
			question: "How do you handle your workflow?",
			answer:   "Poorly.",
			want:     []string{"workflow", "quality"},
		},
		{
			name:     "multiple tags in table order",
			question: "",
			answer:   "Our team wastes hours on this tool, which is frustrating.",
			want:     []string{"time_management", "collaboration", "technology", "frustration"},
		},
		{
			name:     "follow-up answer contributes",
			question: "Anything else?",
			answer:   "Not really.",
			followUp: "The support experience was poor.",
			want:     []string{"customer_service", "quality"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTags(tt.question, tt.answer, tt.followUp)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractTags(%q, %q, %q) = %v, want %v", tt.question, tt.answer, tt.followUp, got, tt.want)
			}
		})
	}
}

func TestExtractTags_NeverEmpty(t *testing.T) {
	if got := extractTags("", "", ""); len(got) == 0 {
		t.Error("tag set must never be empty")
	}
}
