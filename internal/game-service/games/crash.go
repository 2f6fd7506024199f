package games

import (
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

// CrashData é o payload do outcome de uma aposta do jogo contínuo.
// O ponto de crash é sorteado uma vez antes da rodada começar; a
// aposta vence sse sacou antes do crash.
type CrashData struct {
	CrashPoint float64 `json:"crash_point"`
	CashoutAt  float64 `json:"cashout_at,omitempty"`
	Auto       bool    `json:"auto,omitempty"`
}

// NaturalCrashPoint sorteia o ponto de crash da rodada a partir do
// commitment (nonce = sequência da rodada).
func NaturalCrashPoint(c fair.Commitment, edge float64) (float64, error) {
	u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "")
	if err != nil {
		return 0, err
	}
	return fair.CrashMultiplier(u, edge), nil
}

// CrashOutcome monta o outcome de uma aposta resolvida da rodada.
func CrashOutcome(crashPoint, cashoutAt float64, auto bool) *Outcome {
	win := cashoutAt > 0 && cashoutAt <= crashPoint
	out := &Outcome{
		Game: GameCrash,
		Win:  win,
		Data: &CrashData{CrashPoint: crashPoint, CashoutAt: cashoutAt, Auto: auto},
	}
	if win {
		out.Multiplier = cashoutAt
	}
	return out
}
