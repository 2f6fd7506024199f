package games

import (
	"errors"
	"math"
	"strconv"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

const (
	towerMaxLevels = 9
	towerEdge      = 0.99
)

var ErrInvalidTowerParams = errors.New("games: tower needs difficulty easy|medium|hard and levels 1..9")

// towerLayouts: colunas por andar e quantas delas são seguras.
var towerLayouts = map[string]struct {
	Cols int
	Safe int
}{
	"easy":   {Cols: 4, Safe: 3},
	"medium": {Cols: 3, Safe: 2},
	"hard":   {Cols: 2, Safe: 1},
}

// TowerMultiplier devolve o payout por subir `level` andares na
// dificuldade dada (0 fora da faixa).
func TowerMultiplier(difficulty string, level int) float64 {
	l, ok := towerLayouts[difficulty]
	if !ok || level < 1 || level > towerMaxLevels {
		return 0
	}
	odds := float64(l.Cols) / float64(l.Safe)
	return round2(towerEdge * math.Pow(odds, float64(level)))
}

// TowerData é o payload do outcome de tower.
type TowerData struct {
	Difficulty string `json:"difficulty"`
	Levels     int    `json:"levels"`  // andares que o jogador quis subir
	Cleared    int    `json:"cleared"` // andares efetivamente vencidos
	Hazards    []int  `json:"hazards"` // coluna perigosa de cada andar
}

// resolveTower: um sorteio de sobrevivência por andar; a subida para no
// primeiro andar perdido. Win sse todos os andares pedidos foram vencidos.
func resolveTower(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	diff := p.Difficulty
	if diff == "" {
		diff = "easy"
	}
	layout, ok := towerLayouts[diff]
	if !ok || p.Levels < 1 || p.Levels > towerMaxLevels {
		return nil, ErrInvalidTowerParams
	}
	levels := p.Levels

	survive := float64(layout.Safe) / float64(layout.Cols)
	cleared := 0
	hazards := make([]int, levels)
	for lvl := 0; lvl < levels; lvl++ {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "level:"+strconv.Itoa(lvl))
		if err != nil {
			return nil, err
		}
		hazards[lvl] = int(u * float64(layout.Cols))
		if hazards[lvl] >= layout.Cols {
			hazards[lvl] = layout.Cols - 1
		}
		if u >= survive {
			break
		}
		cleared++
	}

	if d == nil {
		out := &Outcome{Game: GameTower, Data: &TowerData{Difficulty: diff, Levels: levels, Cleared: cleared, Hazards: hazards}}
		if cleared == levels {
			out.Win = true
			out.Multiplier = TowerMultiplier(diff, levels)
		}
		return out, nil
	}

	switch d.Type {
	case control.OutcomeLose:
		// near-miss: a queda acontece no último andar da subida
		fall := levels - 1
		return &Outcome{
			Game:   GameTower,
			Forced: true,
			Data:   &TowerData{Difficulty: diff, Levels: levels, Cleared: fall, Hazards: hazards},
		}, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		target := levels
		var miss float64
		if want > 0 {
			// inversão da tabela: acha o andar cujo payout fica mais
			// perto do multiplicador pedido
			best := 1
			bestDiff := math.Inf(1)
			for lvl := 1; lvl <= towerMaxLevels; lvl++ {
				delta := math.Abs(TowerMultiplier(diff, lvl) - want)
				if delta < bestDiff {
					best = lvl
					bestDiff = delta
				}
			}
			target = best
			miss = missOf(TowerMultiplier(diff, best), want)
		}
		fh, err := synthesizeHazards(c, layout.Cols, target)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Game:       GameTower,
			Win:        true,
			Multiplier: TowerMultiplier(diff, target),
			Forced:     true,
			TargetMiss: miss,
			Data:       &TowerData{Difficulty: diff, Levels: target, Cleared: target, Hazards: fh},
		}, nil
	}

	out := &Outcome{Game: GameTower, Data: &TowerData{Difficulty: diff, Levels: levels, Cleared: cleared, Hazards: hazards}}
	if cleared == levels {
		out.Win = true
		out.Multiplier = TowerMultiplier(diff, levels)
	}
	return out, nil
}

// synthesizeHazards gera colunas perigosas variadas pra uma subida
// forçada (o desenho muda a cada commitment).
func synthesizeHazards(c fair.Commitment, cols, levels int) ([]int, error) {
	out := make([]int, levels)
	for lvl := 0; lvl < levels; lvl++ {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "fhazard:"+strconv.Itoa(lvl))
		if err != nil {
			return nil, err
		}
		out[lvl] = int(u * float64(cols))
		if out[lvl] >= cols {
			out[lvl] = cols - 1
		}
	}
	return out, nil
}
