package persona

// Profile describes one synthetic participant. The named fields are the
// attributes the prompt builder knows how to use; anything else goes in Extra.
// A profile is created during study setup and never mutated mid-session.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Age        string `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Location   string `json:"location,omitempty"`
	Background string `json:"background,omitempty"`

	Education          string `json:"education,omitempty"`
	AnnualIncome       string `json:"annual_income,omitempty"`
	RelationshipFamily string `json:"relationship_family,omitempty"`

	PersonalityTraits []string `json:"personality_traits,omitempty"`
	Values            []string `json:"values,omitempty"`
	Hobbies           []string `json:"hobbies,omitempty"`

	MajorStruggles []string `json:"major_struggles,omitempty"`
	BusinessFears  []string `json:"deep_fears_business,omitempty"`
	PersonalFears  []string `json:"deep_fears_personal,omitempty"`

	PreviousSoftwareTried []string `json:"previous_software_tried,omitempty"`
	WhySoftwareFailed     string   `json:"why_software_failed,omitempty"`

	DesiredResults           []string `json:"tangible_business_results,omitempty"`
	EmotionalTransformations []string `json:"emotional_transformations,omitempty"`
	IfOnlySoundbites         []string `json:"if_only_soundbites,omitempty"`
	ThingsToAvoid            []string `json:"things_to_avoid,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// DisplayName returns the name to use in prompts, falling back to the id.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
