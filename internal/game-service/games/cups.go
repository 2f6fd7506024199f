package games

import (
	"errors"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

const (
	cupsCount = 3
	// payout do acerto: 3x menos o fator da casa
	cupsMultiplier = 2.85
)

var ErrInvalidCupsParams = errors.New("games: picked cup must be 0, 1 or 2")

// CupsData é o payload do outcome do jogo do copinho.
type CupsData struct {
	Ball   int `json:"ball"`
	Picked int `json:"picked"`
}

// resolveCups: a bolinha cai num dos três copos; win sse o jogador
// apontou o copo certo.
func resolveCups(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	if p.PickedCup < 0 || p.PickedCup >= cupsCount {
		return nil, ErrInvalidCupsParams
	}

	u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "")
	if err != nil {
		return nil, err
	}
	ball := int(u * cupsCount)
	if ball >= cupsCount {
		ball = cupsCount - 1
	}

	if d == nil {
		out := &Outcome{Game: GameCups, Data: &CupsData{Ball: ball, Picked: p.PickedCup}}
		if ball == p.PickedCup {
			out.Win = true
			out.Multiplier = cupsMultiplier
		}
		return out, nil
	}

	switch d.Type {
	case control.OutcomeLose:
		if ball == p.PickedCup {
			// move a bolinha pra um dos outros dois copos
			bit, err := fair.PathBit(c.ServerSecret, c.ClientSeed, c.Nonce, 1)
			if err != nil {
				return nil, err
			}
			ball = (p.PickedCup + 1 + bit) % cupsCount
		}
		return &Outcome{Game: GameCups, Forced: true, Data: &CupsData{Ball: ball, Picked: p.PickedCup}}, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		var miss float64
		if want > 0 {
			// payout único: o alcançável mais próximo é sempre 2.85
			miss = missOf(cupsMultiplier, want)
		}
		return &Outcome{
			Game:       GameCups,
			Win:        true,
			Multiplier: cupsMultiplier,
			Forced:     true,
			TargetMiss: miss,
			Data:       &CupsData{Ball: p.PickedCup, Picked: p.PickedCup},
		}, nil
	}

	out := &Outcome{Game: GameCups, Data: &CupsData{Ball: ball, Picked: p.PickedCup}}
	if ball == p.PickedCup {
		out.Win = true
		out.Multiplier = cupsMultiplier
	}
	return out, nil
}
