package analysis

import "time"

// Report is the full weighted analysis of one finished session. It is
// recomputed from scratch on every aggregation and replaced wholesale, never
// mutated. GeneratedAt is the only field not derived from the inputs.
type Report struct {
	StudyID     string    `json:"study_id"`
	SessionID   string    `json:"session_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Overview      Overview                `json:"overview"`
	Themes        []Theme                 `json:"themes"`
	Sentiment     Sentiment               `json:"sentiment"`
	Contributions map[string]Contribution `json:"contributions"`
	Tiers         Tiers                   `json:"tiers"`

	ICP           *ICPInsight    `json:"icp_analysis,omitempty"`
	ICPComparison *ICPComparison `json:"icp_comparison,omitempty"`

	Recommendations []string `json:"recommendations"`

	// UnregisteredParticipants lists participants that appeared in turns but
	// had no weight entry; they were counted at weight 1.0.
	UnregisteredParticipants []string `json:"unregistered_participants,omitempty"`
}

type Overview struct {
	TotalTurns    int     `json:"total_turns"`
	Participants  int     `json:"participants"`
	Rounds        int     `json:"rounds"`
	FollowUps     int     `json:"follow_ups"`
	DegradedTurns int     `json:"degraded_turns"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Theme is one tag's frequency across the session. Count is unweighted;
// WeightedScore sums the normalized weight of each contributing participant.
type Theme struct {
	Tag           string  `json:"tag"`
	Count         int     `json:"count"`
	WeightedScore float64 `json:"weighted_score"`
}

type Sentiment struct {
	WeightedScore   float64 `json:"weighted_score"`
	WeightedLabel   string  `json:"weighted_label"`
	UnweightedScore float64 `json:"unweighted_score"`
	UnweightedLabel string  `json:"unweighted_label"`
	ScoredTurns     int     `json:"scored_turns"`
	Confidence      string  `json:"confidence"`
}

// Contribution is one participant's footprint in the session.
// WeightedContribution is response count scaled by the participant's
// normalized analysis weight.
type Contribution struct {
	Weight               float64 `json:"weight"`
	ResponseCount        int     `json:"response_count"`
	TotalContentLength   int     `json:"total_content_length"`
	WeightedContribution float64 `json:"weighted_contribution"`
	UniqueThemes         int     `json:"unique_themes"`
	AvgSentiment         float64 `json:"avg_sentiment"`
	AvgConfidence        float64 `json:"avg_confidence"`
}

// Tiers buckets participants by raw weight: >= 2.0 high, >= 1.0 medium,
// otherwise low.
type Tiers struct {
	HighPriority   TierStats `json:"high_priority"`
	MediumPriority TierStats `json:"medium_priority"`
	LowPriority    TierStats `json:"low_priority"`
}

type TierStats struct {
	Participants  []string `json:"participants"`
	ResponseCount int      `json:"response_count"`
	AvgSentiment  float64  `json:"avg_sentiment"`
}

// ICPInsight is the deep-dive on the primary ICP's contributions.
type ICPInsight struct {
	ParticipantID         string   `json:"participant_id"`
	ResponseCount         int      `json:"response_count"`
	AvgSentiment          float64  `json:"avg_sentiment"`
	UniqueThemes          []string `json:"unique_themes"`
	AvgAnswerLength       float64  `json:"avg_answer_length"`
	Engagement            string   `json:"engagement"`
	RepresentativeAnswers []string `json:"representative_answers"`
}

// ICPComparison contrasts the primary ICP against all other participants.
type ICPComparison struct {
	ICPResponses       int      `json:"icp_responses"`
	OthersAvgResponses float64  `json:"others_avg_responses"`
	VolumeRatio        float64  `json:"volume_ratio"`
	ICPSentiment       float64  `json:"icp_sentiment"`
	OthersSentiment    float64  `json:"others_sentiment"`
	SentimentDelta     float64  `json:"sentiment_delta"`
	ICPOnlyThemes      []string `json:"icp_only_themes"`
	SharedThemes       []string `json:"shared_themes"`
}
