package round

// Stage is a position in the round state machine
type Stage int

const (
	StageIdle Stage = iota
	StageDealing
	StageInsurancePrompt
	StagePlayerTurn
	StageDealerTurn
	StageEvaluation
	StagePayout
	StageNewRound
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDealing:
		return "dealing"
	case StageInsurancePrompt:
		return "insurance_prompt"
	case StagePlayerTurn:
		return "player_turn"
	case StageDealerTurn:
		return "dealer_turn"
	case StageEvaluation:
		return "evaluation"
	case StagePayout:
		return "payout"
	case StageNewRound:
		return "new_round"
	default:
		return "unknown"
	}
}

// BetweenRounds reports whether the stage accepts a new round or a change
// to the wager.
func (s Stage) BetweenRounds() bool {
	return s == StageIdle || s == StageNewRound
}
