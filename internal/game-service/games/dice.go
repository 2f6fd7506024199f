package games

import (
	"errors"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

var ErrInvalidDiceParams = errors.New("games: dice target must be between 0.01 and 99.99")

// DiceData é o payload do outcome de dice.
type DiceData struct {
	Roll   float64 `json:"roll"`
	Target float64 `json:"target"`
	Mode   string  `json:"mode"`
}

// resolveDice: win em "over" sse roll > target; em "under" sse roll < target.
// Multiplicador justo: 100/chance-de-vitória.
func resolveDice(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	target := p.Target
	if target == 0 {
		target = 50
	}
	mode := p.Mode
	if mode == "" {
		mode = "over"
	}
	if target < 0.01 || target > 99.99 || (mode != "over" && mode != "under") {
		return nil, ErrInvalidDiceParams
	}

	u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "")
	if err != nil {
		return nil, err
	}
	roll := fair.DiceRoll(u)

	mult := diceMultiplier(target, mode)
	out := &Outcome{Game: GameDice, Data: &DiceData{Roll: roll, Target: target, Mode: mode}}

	if d == nil {
		out.Win = diceWins(roll, target, mode)
		if out.Win {
			out.Multiplier = mult
		}
		return out, nil
	}

	out.Forced = true
	switch d.Type {
	case control.OutcomeLose:
		// perturbação mínima: 0.01 pro lado perdedor, colado no alvo
		if diceWins(roll, target, mode) {
			roll = nudgeDice(target, mode, false)
		}
		out.Data = &DiceData{Roll: roll, Target: target, Mode: mode}
		return out, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		if want > 0 {
			// inversão do payout: acha o alvo cuja chance implica o
			// multiplicador pedido e sintetiza um roll vencedor
			target = diceTargetFor(want, mode)
			mult = diceMultiplier(target, mode)
			roll = nudgeDice(target, mode, true)
			out.Win = true
			out.Multiplier = mult
			out.TargetMiss = missOf(mult, want)
			out.Data = &DiceData{Roll: roll, Target: target, Mode: mode}
			return out, nil
		}
		if !diceWins(roll, target, mode) {
			roll = nudgeDice(target, mode, true)
		}
		out.Win = true
		out.Multiplier = mult
		out.Data = &DiceData{Roll: roll, Target: target, Mode: mode}
		return out, nil
	}

	out.Win = diceWins(roll, target, mode)
	if out.Win {
		out.Multiplier = mult
	}
	return out, nil
}

func diceWins(roll, target float64, mode string) bool {
	if mode == "under" {
		return roll < target
	}
	return roll > target
}

func diceMultiplier(target float64, mode string) float64 {
	if mode == "under" {
		return round2(100 / target)
	}
	return round2(100 / (100 - target))
}

// diceTargetFor inverte diceMultiplier pro modo pedido, com clamp
// dentro da faixa jogável.
func diceTargetFor(mult float64, mode string) float64 {
	var t float64
	if mode == "under" {
		t = 100 / mult
	} else {
		t = 100 - 100/mult
	}
	if t < 0.01 {
		t = 0.01
	}
	if t > 99.98 {
		t = 99.98
	}
	return round2(t)
}

// nudgeDice devolve um roll 0.01 depois (win) ou antes (lose) do alvo.
func nudgeDice(target float64, mode string, win bool) float64 {
	delta := 0.01
	if (mode == "over") != win {
		delta = -0.01
	}
	roll := round2(target + delta)
	if roll < 0 {
		roll = 0
	}
	if roll > 99.99 {
		roll = 99.99
	}
	return roll
}
