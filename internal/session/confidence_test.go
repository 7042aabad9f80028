package session

import (
	"math"
	"strings"
	"testing"
)

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   float64
	}{
		{
			name:   "short plain answer",
			answer: "It works fine.",
			want:   0.7,
		},
		{
			name:   "over 100 chars",
			answer: strings.Repeat("a", 101),
			want:   0.8,
		},
		{
			name:   "over 200 chars",
			answer: strings.Repeat("a", 201),
			want:   0.9,
		},
		{
			name:   "certain marker",
			answer: "I always do it this way.",
			want:   0.75,
		},
		{
			name:   "uncertain marker",
			answer: "Maybe, I am not sure.",
			want:   0.6,
		},
		{
			name:   "long and certain",
			answer: strings.Repeat("b", 201) + " exactly this.",
			want:   0.95,
		},
		{
			name:   "certain and uncertain cancel against base",
			answer: "I always do this but maybe not.",
			want:   0.65,
		},
		{
			name:   "clamped at max",
			answer: strings.Repeat("c", 250) + " always exactly specifically never",
			want:   0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreConfidence(tt.answer)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("scoreConfidence(%q) = %g, want %g", tt.answer, got, tt.want)
			}
		})
	}
}

func TestScoreConfidence_AlwaysInRange(t *testing.T) {
	answers := []string{
		"",
		"maybe perhaps not sure might",
		strings.Repeat("x", 500) + " always never exactly specifically",
	}
	for _, answer := range answers {
		got := scoreConfidence(answer)
		if got < minConfidence || got > maxConfidence {
			t.Errorf("scoreConfidence(%q) = %g, outside [%g, %g]", answer, got, minConfidence, maxConfidence)
		}
	}
}

func TestScoreConfidence_CaseInsensitiveMarkers(t *testing.T) {
	if got := scoreConfidence("ALWAYS."); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("expected 0.75 for uppercase marker, got %g", got)
	}
}
