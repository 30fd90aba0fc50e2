// Package gesture contains the closed gesture-intent vocabularies shared
// across the pipeline and the serving runtime.
package gesture

import "strings"

// Intent is a gesture command the front-end may propose.
type Intent string

// Known intents. IntentNone marks a rejected or absent gesture.
const (
	IntentOpenMenu    Intent = "OPEN_MENU"
	IntentCloseMenu   Intent = "CLOSE_MENU"
	IntentSwitchRight Intent = "SWITCH_RIGHT"
	IntentSwitchLeft  Intent = "SWITCH_LEFT"
	IntentNone        Intent = "NONE"
)

// Intents is the fixed-order list of positive intents. The one-hot segment of
// every feature vector follows this order; do not reorder.
var Intents = []Intent{IntentOpenMenu, IntentCloseMenu, IntentSwitchRight, IntentSwitchLeft}

// FallbackIntent is the neutral default used when no detection is available.
const FallbackIntent = IntentSwitchRight

// IsPositive reports whether i is one of the four positive intents.
func (i Intent) IsPositive() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// Label is a human-assigned ground-truth label on a recorded clip.
type Label string

// LabelUnlabeled marks clips that were recorded but never labeled.
const LabelUnlabeled Label = "unlabeled"

// Human label vocabulary.
const (
	LabelTPOpenMenu     Label = "TP_OPEN_MENU"
	LabelTPCloseMenu    Label = "TP_CLOSE_MENU"
	LabelTPSwitchRight  Label = "TP_SWITCH_RIGHT"
	LabelTPSwitchLeft   Label = "TP_SWITCH_LEFT"
	LabelNegHeadScratch Label = "NEG_HEAD_SCRATCH"
	LabelNegReach       Label = "NEG_REACH"
	LabelNegWave        Label = "NEG_WAVE"
	LabelNegPhone       Label = "NEG_PHONE"
	LabelNegStretch     Label = "NEG_STRETCH"
	LabelNegOther       Label = "NEG_OTHER"
)

// LabelToIntent maps positive labels to the intent they assert.
var LabelToIntent = map[Label]Intent{
	LabelTPOpenMenu:    IntentOpenMenu,
	LabelTPCloseMenu:   IntentCloseMenu,
	LabelTPSwitchRight: IntentSwitchRight,
	LabelTPSwitchLeft:  IntentSwitchLeft,
}

// DefaultProposedIntent maps labels to a plausible proposed intent for clips
// that carry no explicit detection.
var DefaultProposedIntent = map[Label]Intent{
	LabelTPOpenMenu:     IntentOpenMenu,
	LabelTPCloseMenu:    IntentCloseMenu,
	LabelTPSwitchRight:  IntentSwitchRight,
	LabelTPSwitchLeft:   IntentSwitchLeft,
	LabelNegHeadScratch: IntentOpenMenu,
	LabelNegReach:       IntentSwitchRight,
	LabelNegWave:        IntentOpenMenu,
	LabelNegPhone:       IntentSwitchRight,
	LabelNegStretch:     IntentSwitchRight,
	LabelNegOther:       IntentSwitchRight,
}

// IsPositive reports whether l asserts one of the positive intents.
func (l Label) IsPositive() bool {
	_, ok := LabelToIntent[l]
	return ok
}

// IsNegative reports whether l marks a non-gesture motion.
func (l Label) IsNegative() bool {
	return strings.HasPrefix(string(l), "NEG_")
}

// IsLabeled reports whether l carries a usable human verdict.
func (l Label) IsLabeled() bool {
	return l != "" && l != LabelUnlabeled
}

// Reason is the teacher's category for why a motion was or was not a command.
type Reason string

// Closed reason vocabulary.
const (
	ReasonIntentionalCommand  Reason = "intentional_command"
	ReasonSelfGrooming        Reason = "self_grooming"
	ReasonReachingObject      Reason = "reaching_object"
	ReasonSwattingInsect      Reason = "swatting_insect"
	ReasonConversationGesture Reason = "conversation_gesture"
	ReasonAccidentalMotion    Reason = "accidental_motion"
	ReasonTrackingError       Reason = "tracking_error"
	ReasonUnknown             Reason = "unknown"
)

// Verdict is a single teacher judgment on a proposed gesture. Produced once
// per verify call and never mutated.
type Verdict struct {
	Version        string  `json:"version,omitempty"`
	ProposedIntent Intent  `json:"proposed_intent,omitempty"`
	FinalIntent    Intent  `json:"final_intent"`
	Intentional    *bool   `json:"intentional"`
	Confidence     float64 `json:"confidence"`
	ReasonCategory Reason  `json:"reason_category"`
	Rationale      string  `json:"rationale,omitempty"`

	// SchemaValid is self-reported by the verification front-end. A missing
	// flag is treated as valid, which admits old, unvalidated records.
	SchemaValid *bool `json:"schema_valid,omitempty"`
}

// IsIntentional reports whether the teacher asserted an intentional gesture.
func (v *Verdict) IsIntentional() bool {
	return v != nil && v.Intentional != nil && *v.Intentional
}

// IsSchemaValid reports the self-declared schema validity, defaulting to true.
func (v *Verdict) IsSchemaValid() bool {
	return v == nil || v.SchemaValid == nil || *v.SchemaValid
}
