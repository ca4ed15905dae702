package domain

// Resource is one crisis contact channel offered to the user.
type Resource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Scaffold is the deterministic, tier-specific bundle of guidance text
// returned to the caller alongside the classification. The engine never
// generates language; these are fixed templates selected by tier and edge.
type Scaffold struct {
	Tier          Tier       `json:"tier"`
	Text          string     `json:"text"`
	AssistantHint string     `json:"assistant_hint"`
	FollowupHint  string     `json:"followup_hint"`
	Resources     []Resource `json:"resources"`
}
