package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caucus-labs/caucus/internal/persona"
)

// Generator is the external text-generation capability: given a system prompt
// and a user prompt, return text or fail. Calls may block; implementations
// carry their own timeout. The engine never lets a failure escape a session —
// it degrades to deterministic fallbacks.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

const facilitatorSystemPrompt = `You facilitate qualitative research interviews. You write open-ended, non-leading questions suited to different customer segments. Return only the requested text, no preamble.`

const questionsPromptTemplate = `Generate %d focused research questions for a focus group about: %s

Questions should be:
- Open-ended and encourage detailed responses
- Non-leading and unbiased
- Suitable for different customer segments
- Research-oriented

Return as a simple list, one question per line.`

const followUpPromptTemplate = `Based on this Q&A exchange, generate a natural follow-up question:

Original Question: %s
Answer: %s
Persona Context: %s

Generate a follow-up that:
- Digs deeper into their response
- Is specific to what they mentioned
- Considers their background struggles and fears
- Feels conversational, not interrogating

Return just the follow-up question, nothing else.`

// Facilitator generates research questions and contextual follow-ups,
// degrading to fixed fallbacks when the generator is unavailable.
type Facilitator struct {
	gen    Generator
	logger *slog.Logger
}

func NewFacilitator(gen Generator, logger *slog.Logger) *Facilitator {
	return &Facilitator{gen: gen, logger: logger}
}

// GenerateQuestions produces n research questions for a topic. On generator
// failure it returns the three standard fallback questions.
func (f *Facilitator) GenerateQuestions(ctx context.Context, topic string, n int) []string {
	if f.gen != nil {
		prompt := fmt.Sprintf(questionsPromptTemplate, n, topic)
		raw, err := f.gen.Generate(ctx, facilitatorSystemPrompt, prompt)
		if err == nil {
			if questions := parseQuestionList(raw, n); len(questions) > 0 {
				return questions
			}
		} else {
			f.logger.Warn("question generation failed, using fallback", "topic", topic, "error", err)
		}
	}

	return []string{
		fmt.Sprintf("What are your biggest challenges with %s?", topic),
		fmt.Sprintf("How do you currently solve problems related to %s?", topic),
		fmt.Sprintf("What would an ideal solution for %s look like to you?", topic),
	}
}

// parseQuestionList splits a generated response into questions, stripping
// list markers and numbering.
func parseQuestionList(raw string, max int) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		q := strings.Trim(strings.TrimSpace(line), "-*1234567890. )")
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == max {
			break
		}
	}
	return questions
}

// FollowUp generates one contextual follow-up question for an answer.
// Blank answers and answers with no trigger keyword get no follow-up; depth
// is capped at one by the orchestrator. On generator failure the fixed
// decision table keyed on the trigger applies.
func (f *Facilitator) FollowUp(ctx context.Context, question, answer string, p *persona.Profile) string {
	if strings.TrimSpace(answer) == "" {
		return ""
	}
	if !hasFollowUpTrigger(answer) {
		return ""
	}

	if f.gen != nil {
		personaContext := p.Background
		if details := persona.FollowUpContext(p); details != "" {
			personaContext += " | Persona details: " + details
		}

		prompt := fmt.Sprintf(followUpPromptTemplate, question, answer, personaContext)
		raw, err := f.gen.Generate(ctx, facilitatorSystemPrompt, prompt)
		if err == nil {
			followUp := strings.TrimSpace(raw)
			if followUp != "" {
				if !strings.HasSuffix(followUp, "?") {
					followUp += "?"
				}
				return followUp
			}
		} else {
			f.logger.Warn("follow-up generation failed, using fallback",
				"participant", p.ID,
				"error", err,
			)
		}
	}

	return fallbackFollowUp(answer)
}

var followUpTriggers = []string{
	"time",
	"expensive", "cost", "price",
	"difficult", "hard", "challenge",
}

// hasFollowUpTrigger reports whether the answer touches a topic worth
// probing deeper.
func hasFollowUpTrigger(answer string) bool {
	lower := strings.ToLower(answer)
	for _, trigger := range followUpTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// fallbackFollowUp picks a follow-up from keyword triggers in the answer.
func fallbackFollowUp(answer string) string {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "time"):
		return "How much time does this typically take?"
	case strings.Contains(lower, "expensive"), strings.Contains(lower, "cost"), strings.Contains(lower, "price"):
		return "What would be a reasonable price point for you?"
	case strings.Contains(lower, "difficult"), strings.Contains(lower, "hard"), strings.Contains(lower, "challenge"):
		return "What makes this particularly challenging?"
	default:
		return "Can you give me a specific example of that?"
	}
}
