package games

import (
	"math"
	"strconv"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

// slotSymbols e slotWeights definem a régua de cada rolo (pesos somam 100).
var (
	slotSymbols = []string{"cherry", "lemon", "orange", "grape", "bell", "seven"}
	slotWeights = []int{30, 25, 20, 12, 8, 5}

	// slotPaytable paga trincas; pares não pagam.
	slotPaytable = map[string]float64{
		"cherry": 2.5,
		"lemon":  4,
		"orange": 6,
		"grape":  10,
		"bell":   25,
		"seven":  75,
	}
)

// SlotsData é o payload do outcome de slots.
type SlotsData struct {
	Reels [3]string `json:"reels"`
}

// resolveSlots: três rolos independentes sorteados por peso; paga a
// trinca conforme a tabela.
func resolveSlots(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	var reels [3]string
	for i := 0; i < 3; i++ {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "reel:"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		reels[i] = symbolFor(u)
	}

	if d == nil {
		mult := slotsPayout(reels)
		return &Outcome{
			Game:       GameSlots,
			Win:        mult > 0,
			Multiplier: mult,
			Data:       &SlotsData{Reels: reels},
		}, nil
	}

	switch d.Type {
	case control.OutcomeLose:
		// near-miss clássico: dois símbolos altos iguais e um terceiro
		// diferente; pares não pagam
		lose, err := forcedLoseReels(c)
		if err != nil {
			return nil, err
		}
		return &Outcome{Game: GameSlots, Forced: true, Data: &SlotsData{Reels: lose}}, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		sym := "cherry" // menor trinca paga: perturbação mínima
		var miss float64
		if want > 0 {
			sym = nearestTriple(want)
			miss = missOf(slotPaytable[sym], want)
		}
		return &Outcome{
			Game:       GameSlots,
			Win:        true,
			Multiplier: slotPaytable[sym],
			Forced:     true,
			TargetMiss: miss,
			Data:       &SlotsData{Reels: [3]string{sym, sym, sym}},
		}, nil
	}

	mult := slotsPayout(reels)
	return &Outcome{Game: GameSlots, Win: mult > 0, Multiplier: mult, Data: &SlotsData{Reels: reels}}, nil
}

func symbolFor(u float64) string {
	n := int(u * 100)
	cum := 0
	for i, w := range slotWeights {
		cum += w
		if n < cum {
			return slotSymbols[i]
		}
	}
	return slotSymbols[len(slotSymbols)-1]
}

func slotsPayout(reels [3]string) float64 {
	if reels[0] == reels[1] && reels[1] == reels[2] {
		return slotPaytable[reels[0]]
	}
	return 0
}

// nearestTriple acha o símbolo cuja trinca paga mais perto do alvo.
func nearestTriple(target float64) string {
	best := slotSymbols[0]
	bestDiff := math.Inf(1)
	for _, sym := range slotSymbols {
		diff := math.Abs(slotPaytable[sym] - target)
		if diff < bestDiff {
			best = sym
			bestDiff = diff
		}
	}
	return best
}

// forcedLoseReels sintetiza uma derrota verossímil: par alto + símbolo
// distinto, com os dois sorteios saindo do commitment.
func forcedLoseReels(c fair.Commitment) ([3]string, error) {
	u1, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "flose:pair")
	if err != nil {
		return [3]string{}, err
	}
	u2, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "flose:odd")
	if err != nil {
		return [3]string{}, err
	}
	// par entre os símbolos altos (grape, bell, seven)
	high := []string{"grape", "bell", "seven"}
	pair := high[int(u1*float64(len(high)))%len(high)]
	odd := slotSymbols[int(u2*float64(len(slotSymbols)))%len(slotSymbols)]
	if odd == pair {
		odd = "lemon"
		if pair == "lemon" {
			odd = "cherry"
		}
	}
	// posição do símbolo destoante também varia
	pos := int((u1 + u2) * 3)
	reels := [3]string{pair, pair, pair}
	reels[pos%3] = odd
	return reels, nil
}
