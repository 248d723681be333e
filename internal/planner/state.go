package planner

// State is one node of the generation state machine. The machine is an
// explicit enum plus transition table so every edge can be tested on its
// own rather than buried in loop control flow.
type State int

const (
	StateValidatingInput State = iota
	StateSelectingCandidates
	StateAssembling
	StateValidatingNutrition
	StateReviewingCoherence
	StateImproving
	StateRoundFailed
	StateAccepted
	StateFallback
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidatingInput:
		return "validating_input"
	case StateSelectingCandidates:
		return "selecting_candidates"
	case StateAssembling:
		return "assembling"
	case StateValidatingNutrition:
		return "validating_nutrition"
	case StateReviewingCoherence:
		return "reviewing_coherence"
	case StateImproving:
		return "improving"
	case StateRoundFailed:
		return "round_failed"
	case StateAccepted:
		return "accepted"
	case StateFallback:
		return "fallback"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the machine has produced an outcome.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateFallback || s == StateFailed
}

// Event is a stage outcome driving one transition.
type Event int

const (
	EvBlueprintValid Event = iota
	EvBlueprintInvalid
	EvCandidatesSelected
	EvSelectionFatal
	EvDraftAssembled
	EvStageFailed
	EvNutritionPassed
	EvNutritionRepairable
	EvNutritionFailed
	EvCoherencePassed
	EvCoherenceImprovable
	EvCoherenceFailed
	EvRetry
	EvRetriesExhausted
)

// transition is the pure state-transition function. Unknown pairs fail the
// round rather than wedging the machine.
func transition(s State, ev Event) State {
	switch s {
	case StateValidatingInput:
		switch ev {
		case EvBlueprintValid:
			return StateSelectingCandidates
		case EvBlueprintInvalid:
			return StateFailed
		}
	case StateSelectingCandidates:
		switch ev {
		case EvCandidatesSelected:
			return StateAssembling
		case EvSelectionFatal:
			return StateFailed
		case EvStageFailed:
			return StateRoundFailed
		}
	case StateAssembling, StateImproving:
		switch ev {
		case EvDraftAssembled:
			return StateValidatingNutrition
		case EvStageFailed:
			return StateRoundFailed
		}
	case StateValidatingNutrition:
		switch ev {
		case EvNutritionPassed:
			return StateReviewingCoherence
		case EvNutritionRepairable:
			// Targeted repair re-runs assembly without consuming a retry.
			return StateAssembling
		case EvNutritionFailed:
			return StateRoundFailed
		}
	case StateReviewingCoherence:
		switch ev {
		case EvCoherencePassed:
			return StateAccepted
		case EvCoherenceImprovable:
			return StateImproving
		case EvCoherenceFailed:
			return StateRoundFailed
		}
	case StateRoundFailed:
		switch ev {
		case EvRetry:
			return StateSelectingCandidates
		case EvRetriesExhausted:
			return StateFallback
		}
	}
	return StateRoundFailed
}
