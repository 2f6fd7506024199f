package games

import (
	"errors"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

var ErrInvalidLimboParams = errors.New("games: limbo target multiplier must be >= 1.01")

// limboEdge segue o mesmo fator do crash provably-fair.
const limboEdge = 0.99

// LimboData é o payload do outcome de limbo.
type LimboData struct {
	Result float64 `json:"result"`
	Target float64 `json:"target"`
}

// resolveLimbo: o jogador escolhe um multiplicador alvo; win sse o
// resultado sorteado alcança o alvo, pagando exatamente o alvo.
func resolveLimbo(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	target := p.TargetMultiplier
	if target < 1.01 {
		return nil, ErrInvalidLimboParams
	}
	target = round2(target)

	u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "")
	if err != nil {
		return nil, err
	}
	result := fair.CrashMultiplier(u, limboEdge)

	out := &Outcome{Game: GameLimbo, Data: &LimboData{Result: result, Target: target}}

	if d == nil {
		if result >= target {
			out.Win = true
			out.Multiplier = target
		}
		return out, nil
	}

	out.Forced = true
	switch d.Type {
	case control.OutcomeLose:
		if result >= target {
			// near-miss: resultado colado logo abaixo do alvo
			miss := round2(target - 0.01)
			if d.NearMissEnabled && d.NearMissValue >= 1.0 && d.NearMissValue < target {
				miss = round2(d.NearMissValue)
			}
			if miss < 1.0 {
				miss = 1.0
			}
			result = miss
		}
		out.Data = &LimboData{Result: result, Target: target}
		return out, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		if want > 0 && !withinTolerance(target, want) {
			// o payout do limbo é binário (alvo ou nada): o alcançável
			// mais próximo do pedido é o próprio alvo do jogador
			out.TargetMiss = missOf(target, want)
		}
		if result < target {
			// sintetiza um resultado acima do alvo com jitter auditável
			j, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "force")
			if err != nil {
				return nil, err
			}
			result = round2(target * (1 + j*0.25))
		}
		out.Win = true
		out.Multiplier = target
		out.Data = &LimboData{Result: result, Target: target}
		return out, nil
	}

	if result >= target {
		out.Win = true
		out.Multiplier = target
	}
	return out, nil
}
