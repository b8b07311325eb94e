package battle

// BattleOutcome is the result of the win evaluator, from the attacker's
// point of view.
type BattleOutcome int

const (
	OutcomeUndecided BattleOutcome = iota
	OutcomeVictory
	OutcomeDefeat
	OutcomeDraw
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeDraw:
		return "draw"
	case OutcomeUndecided:
		return "undecided"
	default:
		return "unknown"
	}
}

// Result reasons.
const (
	ReasonAnnihilation = "annihilation"
	ReasonTickLimit    = "tick_limit"
)

// Survivor is one unit left standing when the battle ends.
type Survivor struct {
	Type string  `msgpack:"type" yaml:"type"`
	HP   float64 `msgpack:"hp" yaml:"hp"`
}

// Result is the single terminal event of a battle.
type Result struct {
	BattleID           string        `msgpack:"battle_id"`
	Outcome            BattleOutcome `msgpack:"outcome"`
	WinningSideID      SideID        `msgpack:"winning_side_id"`
	SurvivingAttackers []Survivor    `msgpack:"surviving_attackers"`
	SurvivingDefenders []Survivor    `msgpack:"surviving_defenders"`
	Tick               int           `msgpack:"tick"`
	Reason             string        `msgpack:"reason"`
}

// DetermineBattleOutcome maps living-unit counts to an outcome. Both sides
// empty is a draw; an empty attacking side is a defeat; an empty defending
// side is a victory.
func DetermineBattleOutcome(attackersAlive, defendersAlive int) BattleOutcome {
	switch {
	case attackersAlive == 0 && defendersAlive == 0:
		return OutcomeDraw
	case attackersAlive == 0:
		return OutcomeDefeat
	case defendersAlive == 0:
		return OutcomeVictory
	}
	return OutcomeUndecided
}

// evaluate runs the win evaluator and builds the terminal result when the
// battle is over.
func (e *Engine) evaluate() (Result, bool) {
	outcome := DetermineBattleOutcome(e.reg.CountSide(true), e.reg.CountSide(false))
	reason := ReasonAnnihilation
	if outcome == OutcomeUndecided {
		if e.tickLimit <= 0 || e.tick < e.tickLimit {
			return Result{}, false
		}
		outcome = OutcomeDraw
		reason = ReasonTickLimit
	}
	return e.snapshotResult(outcome, reason), true
}

func (e *Engine) snapshotResult(outcome BattleOutcome, reason string) Result {
	res := Result{
		BattleID:           e.battleID,
		Outcome:            outcome,
		Tick:               e.tick,
		Reason:             reason,
		SurvivingAttackers: []Survivor{},
		SurvivingDefenders: []Survivor{},
	}
	for _, u := range e.reg.Live() {
		s := Survivor{Type: u.ArchetypeID, HP: u.HP}
		if u.Attacking {
			res.SurvivingAttackers = append(res.SurvivingAttackers, s)
		} else {
			res.SurvivingDefenders = append(res.SurvivingDefenders, s)
		}
	}
	switch outcome {
	case OutcomeVictory:
		res.WinningSideID = e.attackerSide
	case OutcomeDefeat:
		for _, u := range e.reg.Live() {
			if !u.Attacking {
				res.WinningSideID = u.Side
				break
			}
		}
	}
	return res
}
