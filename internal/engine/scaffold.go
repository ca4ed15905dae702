package engine

import "github.com/atlaspsi/sentinel/internal/domain"

// containmentBeats is the rotating 4-beat de-escalation sequence used on
// turns that continue an existing SAFETY episode.
var containmentBeats = []string{
	"I'm here with you. Breathe — slow in, slow out.",
	"This feels heavy. That's understandable.",
	"Choose one small thing: sit, drink water, or step outside.",
	"There's a 24/7 counselor available. Want me to share how to reach them?",
}

const (
	safetyEntryText = "I'm here with you. Let's slow the pace together.\n" +
		"Inhale 4, hold 2, exhale 6 — twice.\n" +
		"Pick one tiny step: sip water, change posture, look at something steady."
	safetyAssistantHint = "Containment mode: keep sentences short, name feelings without " +
		"elaboration, present two concrete micro-choices, and gently offer human help. " +
		"Do not argue facts or provide complex instructions."
	safetyFollowupHint = "Offer the bridge again with consent. If declined, acknowledge " +
		"and keep the pace slow. Wait for sustained recovery before restoring normal reasoning."

	coherenceText = "Let's steady the pattern before we go deeper. Two quick options:\n" +
		"1) Clarify the goal in one line. 2) List the next two small steps."
	coherenceAssistantHint = "Stabilize purpose and structure. Reflect the user's goal in " +
		"a dozen words, surface one contradiction or missing piece, and offer a fork of " +
		"two simple next steps. Avoid long lectures."
	coherenceFollowupHint = "Once P_align and I rise together and velocity is non-negative, " +
		"propose returning to normal operation."

	truthText          = "Ready for straight answers. Ask directly, and I'll be concise and precise."
	truthAssistantHint = "Deliver facts. Cite sources when available, keep paragraphs tight, " +
		"offer one alternative view if relevant, and provide a clean next step."
	truthFollowupHint = "Invite a quick sanity check: offer to zoom out if the thread drifts."
)

// ScaffoldSelector maps (tier, entry edge, turns-in-tier) to a fixed
// response scaffold. Deterministic lookup, no state, no randomness.
type ScaffoldSelector struct {
	resources []domain.Resource
}

// NewScaffoldSelector builds a selector over the configured crisis
// resource list. The list is validated non-empty at config construction;
// every SAFETY scaffold renders it.
func NewScaffoldSelector(cfg Config) *ScaffoldSelector {
	return &ScaffoldSelector{resources: cfg.Resources}
}

// Select returns the scaffold for the given classification. Continuing
// SAFETY turns rotate through the containment beats by turns-in-tier so a
// held episode does not repeat one line verbatim.
func (s *ScaffoldSelector) Select(tier domain.Tier, entryEdge bool, turnsInTier int) domain.Scaffold {
	switch tier {
	case domain.TierSafety:
		text := safetyEntryText
		if !entryEdge && turnsInTier > 1 {
			text = containmentBeats[(turnsInTier-2)%len(containmentBeats)]
		}
		resources := make([]domain.Resource, len(s.resources))
		copy(resources, s.resources)
		return domain.Scaffold{
			Tier:          domain.TierSafety,
			Text:          text,
			AssistantHint: safetyAssistantHint,
			FollowupHint:  safetyFollowupHint,
			Resources:     resources,
		}
	case domain.TierCoherence:
		return domain.Scaffold{
			Tier:          domain.TierCoherence,
			Text:          coherenceText,
			AssistantHint: coherenceAssistantHint,
			FollowupHint:  coherenceFollowupHint,
		}
	default:
		return domain.Scaffold{
			Tier:          domain.TierTruth,
			Text:          truthText,
			AssistantHint: truthAssistantHint,
			FollowupHint:  truthFollowupHint,
		}
	}
}
