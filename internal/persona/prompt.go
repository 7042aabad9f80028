package persona

import (
	"fmt"
	"strings"
)

// SystemPrompt is the generation contract for every persona response.
const SystemPrompt = `You are roleplaying a research interview participant. Stay fully in character: answer only as the person described, in first person, drawing on their background, struggles, and goals. Never mention that you are an AI or that this is a simulation.`

// BuildPrompt assembles the full in-character prompt for a persona answering
// a question. Optional fields are skipped; the ordering is stable so prompts
// are reproducible for the same profile.
func BuildPrompt(p *Profile, question, context string) string {
	var parts []string

	identity := fmt.Sprintf("You are %s", p.DisplayName())
	if p.Age != "" {
		identity += fmt.Sprintf(", a %s-year-old", p.Age)
	}
	if p.Gender != "" {
		identity += " " + p.Gender
	}
	if p.Occupation != "" {
		identity += " " + p.Occupation
	}
	if p.Location != "" {
		identity += " from " + p.Location
	}
	parts = append(parts, identity+".")

	if p.RelationshipFamily != "" {
		parts = append(parts, fmt.Sprintf("Personal life: %s.", p.RelationshipFamily))
	}
	if p.Education != "" {
		parts = append(parts, fmt.Sprintf("Education: %s.", p.Education))
	}
	if p.AnnualIncome != "" {
		parts = append(parts, fmt.Sprintf("Annual income: %s.", p.AnnualIncome))
	}
	if len(p.PersonalityTraits) > 0 {
		parts = append(parts, fmt.Sprintf("Your personality: %s.", strings.Join(p.PersonalityTraits, ", ")))
	}
	if len(p.Values) > 0 {
		parts = append(parts, fmt.Sprintf("You value: %s.", strings.Join(p.Values, ", ")))
	}
	if len(p.Hobbies) > 0 {
		parts = append(parts, fmt.Sprintf("Hobbies: %s.", strings.Join(p.Hobbies, ", ")))
	}
	if len(p.MajorStruggles) > 0 {
		parts = append(parts, fmt.Sprintf("Current struggles: %s.", strings.Join(p.MajorStruggles, ", ")))
	}
	if len(p.BusinessFears) > 0 {
		parts = append(parts, fmt.Sprintf("Deep business fears: %s.", strings.Join(p.BusinessFears, ", ")))
	}
	if len(p.PersonalFears) > 0 {
		parts = append(parts, fmt.Sprintf("Personal concerns: %s.", strings.Join(p.PersonalFears, ", ")))
	}
	if len(p.PreviousSoftwareTried) > 0 {
		parts = append(parts, fmt.Sprintf("You've tried: %s.", strings.Join(p.PreviousSoftwareTried, ", ")))
	}
	if p.WhySoftwareFailed != "" {
		parts = append(parts, fmt.Sprintf("Why previous solutions failed: %s.", p.WhySoftwareFailed))
	}
	if len(p.DesiredResults) > 0 {
		parts = append(parts, fmt.Sprintf("You want to achieve: %s.", strings.Join(p.DesiredResults, ", ")))
	}
	if len(p.EmotionalTransformations) > 0 {
		parts = append(parts, fmt.Sprintf("Emotionally, you hope to feel: %s.", strings.Join(p.EmotionalTransformations, ", ")))
	}
	if len(p.IfOnlySoundbites) > 0 {
		soundbites := p.IfOnlySoundbites
		if len(soundbites) > 2 {
			soundbites = soundbites[:2]
		}
		parts = append(parts, fmt.Sprintf("You often think: %s.", strings.Join(soundbites, "; ")))
	}
	if len(p.ThingsToAvoid) > 0 {
		parts = append(parts, fmt.Sprintf("You want to avoid: %s.", strings.Join(p.ThingsToAvoid, ", ")))
	}

	parts = append(parts,
		"\nWhen answering questions:",
		"- Draw from your specific struggles, fears, and past experiences",
		"- Reference your failed attempts when relevant",
		"- Express both practical needs and emotional concerns",
		"- Be authentic to your situation and personality",
	)

	if context != "" {
		parts = append(parts, "\nContext: "+context)
	}
	parts = append(parts,
		"\nQuestion: "+question,
		"\nRespond naturally as this person would, incorporating their complete life context and emotional state.",
	)

	return strings.Join(parts, "\n")
}

// FallbackAnswer synthesizes a deterministic in-character answer from the
// profile when the text-generation capability is unavailable.
func FallbackAnswer(p *Profile, question string) string {
	occupation := p.Occupation
	if occupation == "" {
		occupation = "professional"
	}

	base := fmt.Sprintf("As a %s, this is something I deal with regularly.", occupation)

	if len(p.MajorStruggles) > 0 {
		base += fmt.Sprintf(" %s is definitely a concern in my work.", p.MajorStruggles[0])
	}
	if len(p.BusinessFears) > 0 {
		base += fmt.Sprintf(" I worry about %s.", strings.ToLower(p.BusinessFears[0]))
	}
	if len(p.PreviousSoftwareTried) > 0 {
		base += fmt.Sprintf(" I've tried %s before but it didn't quite work for my needs.", p.PreviousSoftwareTried[0])
	}

	return base + fmt.Sprintf(" %s is definitely something that affects my daily work.", strings.TrimSuffix(question, "?"))
}

// FollowUpContext summarizes the profile fields the facilitator may use when
// crafting a follow-up question. Empty when the profile carries none of them.
func FollowUpContext(p *Profile) string {
	var parts []string
	if len(p.MajorStruggles) > 0 {
		parts = append(parts, "Struggles: "+strings.Join(p.MajorStruggles, ", "))
	}
	if len(p.BusinessFears) > 0 {
		parts = append(parts, "Fears: "+strings.Join(p.BusinessFears, ", "))
	}
	if len(p.PreviousSoftwareTried) > 0 {
		parts = append(parts, "Previous attempts: "+strings.Join(p.PreviousSoftwareTried, ", "))
	}
	if len(p.DesiredResults) > 0 {
		parts = append(parts, "Goals: "+strings.Join(p.DesiredResults, ", "))
	}
	return strings.Join(parts, " | ")
}
