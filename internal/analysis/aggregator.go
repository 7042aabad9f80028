package analysis

import (
	"log/slog"
	"sort"
	"time"

	"github.com/caucus-labs/caucus/internal/registry"
	"github.com/caucus-labs/caucus/internal/session"
)

const (
	sentimentPositiveAbove = 0.1
	sentimentNegativeBelow = -0.1

	highPriorityWeight   = 2.0
	mediumPriorityWeight = 1.0

	highConfidenceTurns   = 10
	mediumConfidenceTurns = 5

	highEngagementResponses   = 5
	mediumEngagementResponses = 2

	weightSpreadThreshold = 1.0
	lowICPResponses       = 3
	sentimentGapThreshold = 0.2

	maxExternalRecommendations = 3
)

// Aggregator computes session reports. It holds no per-session state, so a
// single instance can serve concurrent sessions.
type Aggregator struct {
	logger *slog.Logger
}

func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// participantStats is everything tallied per participant in one pass over the
// turns, keyed off first appearance so output ordering is stable.
type participantStats struct {
	id            string
	turns         int
	responses     int
	contentLength int
	themes        map[string]bool
	sentimentSum  float64
	sentimentN    int
	confidenceSum float64
	answers       []string
}

// Aggregate builds the weighted report for a finished session. Participants
// present in turns but absent from the registry are counted at weight 1.0 and
// surfaced in UnregisteredParticipants rather than failing the aggregation.
// external carries the study's externally-sourced recommendation texts, which
// are passed through verbatim (capped).
func (a *Aggregator) Aggregate(turns []session.Turn, reg *registry.Registry, external []string) *Report {
	report := &Report{
		GeneratedAt:     time.Now().UTC(),
		Contributions:   map[string]Contribution{},
		Recommendations: []string{},
	}
	if len(turns) > 0 {
		report.StudyID = turns[0].StudyID
		report.SessionID = turns[0].SessionID
	}

	weights := reg.AnalysisWeights()
	rawWeights := map[string]float64{}
	for _, e := range reg.Entries() {
		rawWeights[e.ParticipantID] = e.Weight
	}

	stats := map[string]*participantStats{}
	var order []string
	unregistered := map[string]bool{}

	weightOf := func(id string) float64 {
		if w, ok := weights[id]; ok {
			return w
		}
		if !unregistered[id] {
			unregistered[id] = true
			a.logger.Warn("participant missing from weight registry, defaulting to 1.0",
				"participant_id", id)
		}
		return 1.0
	}

	themeCounts := map[string]int{}
	themeWeighted := map[string]float64{}
	var themeOrder []string

	var confidenceSum float64
	var weightedSentSum, weightedSentDiv, sentSum float64
	scored := 0
	maxRound := 0
	followUps := 0
	degraded := 0

	for _, t := range turns {
		ps, ok := stats[t.ParticipantID]
		if !ok {
			ps = &participantStats{id: t.ParticipantID, themes: map[string]bool{}}
			stats[t.ParticipantID] = ps
			order = append(order, t.ParticipantID)
		}
		w := weightOf(t.ParticipantID)

		ps.turns++
		ps.responses += t.ResponseCount()
		ps.contentLength += t.ContentLength()
		ps.confidenceSum += t.Confidence
		ps.answers = append(ps.answers, t.Answer)

		for _, tag := range t.Tags {
			if _, seen := themeCounts[tag]; !seen {
				themeOrder = append(themeOrder, tag)
			}
			themeCounts[tag]++
			themeWeighted[tag] += w
			ps.themes[tag] = true
		}

		confidenceSum += t.Confidence
		if t.Round > maxRound {
			maxRound = t.Round
		}
		if t.FollowUpAnswer != "" {
			followUps++
		}
		if t.Degraded {
			degraded++
		}
		if t.Sentiment != nil {
			s := *t.Sentiment
			sentSum += s
			weightedSentSum += s * w
			weightedSentDiv += w
			scored++
			ps.sentimentSum += s
			ps.sentimentN++
		}
	}

	report.Overview = Overview{
		TotalTurns:    len(turns),
		Participants:  len(order),
		Rounds:        maxRound,
		FollowUps:     followUps,
		DegradedTurns: degraded,
	}
	if len(turns) > 0 {
		report.Overview.AvgConfidence = confidenceSum / float64(len(turns))
	}

	report.Themes = rankThemes(themeOrder, themeCounts, themeWeighted)
	report.Sentiment = summarizeSentiment(sentSum, weightedSentSum, weightedSentDiv, scored)
	report.Contributions = contributions(order, stats, weights, rawWeights)
	report.Tiers = tierParticipants(order, stats, rawWeights)

	if icpID, ok := reg.PrimaryICP(); ok {
		ps, present := stats[icpID]
		if !present {
			// A designated ICP with no turns still gets a deep-dive, with
			// zeroed statistics, so its absence is visible in the report.
			ps = &participantStats{id: icpID, themes: map[string]bool{}}
		}
		report.ICP = icpInsight(ps)
		report.ICPComparison = icpComparison(ps, order, stats)
	}

	report.Recommendations = a.recommend(reg, report, external)

	for _, id := range order {
		if unregistered[id] {
			report.UnregisteredParticipants = append(report.UnregisteredParticipants, id)
		}
	}
	return report
}

// rankThemes orders by count descending, then first-appearance order for ties,
// so repeated aggregations of the same turns produce identical output.
func rankThemes(themeOrder []string, counts map[string]int, weighted map[string]float64) []Theme {
	themes := make([]Theme, 0, len(themeOrder))
	for _, tag := range themeOrder {
		themes = append(themes, Theme{Tag: tag, Count: counts[tag], WeightedScore: weighted[tag]})
	}
	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Count > themes[j].Count
	})
	return themes
}

func summarizeSentiment(sum, weightedSum, weightedDiv float64, scored int) Sentiment {
	s := Sentiment{ScoredTurns: scored, Confidence: "low"}
	if scored == 0 {
		s.WeightedLabel = sentimentLabel(0)
		s.UnweightedLabel = sentimentLabel(0)
		return s
	}
	s.UnweightedScore = sum / float64(scored)
	if weightedDiv > 0 {
		s.WeightedScore = weightedSum / weightedDiv
	}
	s.WeightedLabel = sentimentLabel(s.WeightedScore)
	s.UnweightedLabel = sentimentLabel(s.UnweightedScore)
	switch {
	case scored >= highConfidenceTurns:
		s.Confidence = "high"
	case scored >= mediumConfidenceTurns:
		s.Confidence = "medium"
	}
	return s
}

func sentimentLabel(score float64) string {
	switch {
	case score > sentimentPositiveAbove:
		return "positive"
	case score < sentimentNegativeBelow:
		return "negative"
	default:
		return "neutral"
	}
}

func contributions(order []string, stats map[string]*participantStats, weights, rawWeights map[string]float64) map[string]Contribution {
	out := make(map[string]Contribution, len(order))
	for _, id := range order {
		ps := stats[id]
		raw, ok := rawWeights[id]
		if !ok {
			raw = 1.0
		}
		w, ok := weights[id]
		if !ok {
			w = 1.0
		}
		c := Contribution{
			Weight:               raw,
			ResponseCount:        ps.responses,
			TotalContentLength:   ps.contentLength,
			WeightedContribution: float64(ps.responses) * w,
			UniqueThemes:         len(ps.themes),
		}
		if ps.sentimentN > 0 {
			c.AvgSentiment = ps.sentimentSum / float64(ps.sentimentN)
		}
		if ps.turns > 0 {
			c.AvgConfidence = ps.confidenceSum / float64(ps.turns)
		}
		out[id] = c
	}
	return out
}

func tierParticipants(order []string, stats map[string]*participantStats, rawWeights map[string]float64) Tiers {
	var tiers Tiers
	fill := func(ts *TierStats, ps *participantStats) {
		ts.Participants = append(ts.Participants, ps.id)
		ts.ResponseCount += ps.responses
	}
	sentSums := map[*TierStats]float64{}
	sentCounts := map[*TierStats]int{}
	for _, id := range order {
		ps := stats[id]
		raw, ok := rawWeights[id]
		if !ok {
			raw = 1.0
		}
		var ts *TierStats
		switch {
		case raw >= highPriorityWeight:
			ts = &tiers.HighPriority
		case raw >= mediumPriorityWeight:
			ts = &tiers.MediumPriority
		default:
			ts = &tiers.LowPriority
		}
		fill(ts, ps)
		sentSums[ts] += ps.sentimentSum
		sentCounts[ts] += ps.sentimentN
	}
	for _, ts := range []*TierStats{&tiers.HighPriority, &tiers.MediumPriority, &tiers.LowPriority} {
		if n := sentCounts[ts]; n > 0 {
			ts.AvgSentiment = sentSums[ts] / float64(n)
		}
	}
	return tiers
}

func icpInsight(ps *participantStats) *ICPInsight {
	insight := &ICPInsight{
		ParticipantID: ps.id,
		ResponseCount: ps.responses,
		UniqueThemes:  sortedThemes(ps.themes),
		Engagement:    "low",
	}
	if ps.sentimentN > 0 {
		insight.AvgSentiment = ps.sentimentSum / float64(ps.sentimentN)
	}
	if ps.responses > 0 {
		insight.AvgAnswerLength = float64(ps.contentLength) / float64(ps.responses)
	}
	switch {
	case ps.responses > highEngagementResponses:
		insight.Engagement = "high"
	case ps.responses > mediumEngagementResponses:
		insight.Engagement = "medium"
	}
	for i, answer := range ps.answers {
		if i >= 3 {
			break
		}
		insight.RepresentativeAnswers = append(insight.RepresentativeAnswers, snippet(answer, 100))
	}
	return insight
}

func icpComparison(icp *participantStats, order []string, stats map[string]*participantStats) *ICPComparison {
	cmp := &ICPComparison{ICPResponses: icp.responses}
	if icp.sentimentN > 0 {
		cmp.ICPSentiment = icp.sentimentSum / float64(icp.sentimentN)
	}

	otherResponses := 0
	otherCount := 0
	otherSentSum := 0.0
	otherSentN := 0
	otherThemes := map[string]bool{}
	for _, id := range order {
		if id == icp.id {
			continue
		}
		ps := stats[id]
		otherResponses += ps.responses
		otherCount++
		otherSentSum += ps.sentimentSum
		otherSentN += ps.sentimentN
		for tag := range ps.themes {
			otherThemes[tag] = true
		}
	}
	if otherCount > 0 {
		cmp.OthersAvgResponses = float64(otherResponses) / float64(otherCount)
	}
	if cmp.OthersAvgResponses > 0 {
		cmp.VolumeRatio = float64(icp.responses) / cmp.OthersAvgResponses
	}
	if otherSentN > 0 {
		cmp.OthersSentiment = otherSentSum / float64(otherSentN)
	}
	cmp.SentimentDelta = cmp.ICPSentiment - cmp.OthersSentiment

	for _, tag := range sortedThemes(icp.themes) {
		if otherThemes[tag] {
			cmp.SharedThemes = append(cmp.SharedThemes, tag)
		} else {
			cmp.ICPOnlyThemes = append(cmp.ICPOnlyThemes, tag)
		}
	}
	return cmp
}

func (a *Aggregator) recommend(reg *registry.Registry, report *Report, external []string) []string {
	recs := []string{}

	entries := reg.Entries()
	if len(entries) > 1 {
		minW, maxW := entries[0].Weight, entries[0].Weight
		for _, e := range entries[1:] {
			if e.Weight < minW {
				minW = e.Weight
			}
			if e.Weight > maxW {
				maxW = e.Weight
			}
		}
		if maxW-minW > weightSpreadThreshold {
			recs = append(recs, "Consider balancing persona weights - high variance detected in importance levels")
		}
	}

	if report.ICP != nil {
		if report.ICP.ResponseCount < lowICPResponses {
			recs = append(recs, "Primary ICP provided limited responses - consider follow-up engagement")
		}
		if report.ICPComparison != nil && report.ICPComparison.SentimentDelta > sentimentGapThreshold {
			recs = append(recs, "ICP sentiment significantly more positive than other participants")
		}
	}

	for i, r := range external {
		if i >= maxExternalRecommendations {
			break
		}
		recs = append(recs, r)
	}
	return recs
}

func sortedThemes(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
