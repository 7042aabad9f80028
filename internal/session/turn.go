package session

import "time"

// Turn is one recorded question/answer exchange for one participant in one
// round, plus an optional follow-up exchange. Turns are immutable once
// emitted; the session's sequence is ordered round-major, registration-order
// minor.
type Turn struct {
	StudyID       string   `json:"study_id"`
	SessionID     string   `json:"session_id"`
	ParticipantID string   `json:"participant_id"`
	Round         int      `json:"round"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Confidence    float64  `json:"confidence"`
	Tags          []string `json:"tags"`

	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	FollowUpAnswer   string `json:"follow_up_answer,omitempty"`

	// Sentiment is attached by an external analysis step before aggregation;
	// nil means unscored and is excluded from sentiment means.
	Sentiment *float64 `json:"sentiment,omitempty"`

	// Degraded marks that a fallback answer was substituted because the
	// text-generation capability failed. Non-fatal: the session continues.
	Degraded bool `json:"degraded,omitempty"`

	Timestamp time.Time `json:"ts"`
}

// ContentLength is the combined length of the primary and follow-up answers.
func (t *Turn) ContentLength() int {
	return len(t.Answer) + len(t.FollowUpAnswer)
}

// ResponseCount counts utterances in the turn: the primary answer plus the
// follow-up answer when present.
func (t *Turn) ResponseCount() int {
	if t.FollowUpAnswer != "" {
		return 2
	}
	return 1
}
