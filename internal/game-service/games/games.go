package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

// IDs dos jogos suportados pelos codecs.
const (
	GameDice   = "dice"
	GameLimbo  = "limbo"
	GamePlinko = "plinko"
	GameMines  = "mines"
	GameTower  = "tower"
	GameSlots  = "slots"
	GameCups   = "cups"
	GameCrash  = "crash"
)

var ErrUnknownGame = errors.New("games: unknown game")

// Known responde se o gameID tem codec registrado (crash resolve no
// crash-service, mas é um jogo válido pra controles e verificação).
func Known(game string) bool {
	switch game {
	case GameDice, GameLimbo, GamePlinko, GameMines, GameTower, GameSlots, GameCups, GameCrash:
		return true
	}
	return false
}

// Params são as opções enviadas pelo jogador no momento da aposta.
// Cada jogo usa o subconjunto que lhe interessa.
type Params struct {
	// dice
	Target float64 `json:"target,omitempty"`
	Mode   string  `json:"mode,omitempty"` // over | under

	// limbo
	TargetMultiplier float64 `json:"target_multiplier,omitempty"`

	// plinko
	Risk string `json:"risk,omitempty"` // low | medium | high
	Rows int    `json:"rows,omitempty"` // 8 | 12 | 16

	// mines
	MineCount int   `json:"mine_count,omitempty"`
	Picks     []int `json:"picks,omitempty"`

	// tower
	Difficulty string `json:"difficulty,omitempty"` // easy | medium | hard
	Levels     int    `json:"levels,omitempty"`

	// cups
	PickedCup int `json:"picked_cup,omitempty"`
}

// Outcome é a variante etiquetada que o ledger armazena de forma uniforme:
// o settlement nunca precisa conhecer o payload específico do jogo.
type Outcome struct {
	Game       string  `json:"game"`
	Win        bool    `json:"win"`
	Multiplier float64 `json:"multiplier"`
	Forced     bool    `json:"forced,omitempty"`
	Data       any     `json:"data"`

	// TargetMiss > 0 indica que o alvo exato do override ficou fora da
	// tolerância e o codec caiu pro valor alcançável mais próximo.
	// Condição reportada, nunca fatal (o chamador loga).
	TargetMiss float64 `json:"-"`
}

// Marshal serializa o outcome pro formato persistido no ledger.
func (o *Outcome) Marshal() (json.RawMessage, error) {
	return json.Marshal(o)
}

// exactTolerance é a tolerância relativa aceita entre o multiplicador
// alvo de um override exato e o valor alcançável pelo jogo.
const exactTolerance = 0.05

// Resolve calcula o resultado de uma aposta. Sem diretiva, usa só os
// sorteios determinísticos do commitment; com diretiva, o codec do jogo
// perturba o mínimo necessário (ou inverte a tabela de payout, no caso
// de multiplicador exato).
func Resolve(game string, c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	switch game {
	case GameDice:
		return resolveDice(c, p, d)
	case GameLimbo:
		return resolveLimbo(c, p, d)
	case GamePlinko:
		return resolvePlinko(c, p, d)
	case GameMines:
		return resolveMines(c, p, d)
	case GameTower:
		return resolveTower(c, p, d)
	case GameSlots:
		return resolveSlots(c, p, d)
	case GameCups:
		return resolveCups(c, p, d)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// withinTolerance confere se got está a <=5% do alvo pedido.
func withinTolerance(got, target float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(got-target)/target <= exactTolerance
}

// missOf devolve o desvio relativo pra reportar alvo inalcançável.
func missOf(got, target float64) float64 {
	if target <= 0 {
		return 0
	}
	m := math.Abs(got-target) / target
	if m <= exactTolerance {
		return 0
	}
	return m
}

// directiveTarget resolve o multiplicador pedido pela diretiva: exato
// quando UseExact, senão um ponto dentro da faixa [MinMult, MaxMult]
// sorteado a partir do commitment (continua auditável).
func directiveTarget(d *control.Directive, c fair.Commitment) (float64, error) {
	if d.UseExact && d.Target > 0 {
		return d.Target, nil
	}
	if d.MinMult > 0 && d.MaxMult >= d.MinMult {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "range")
		if err != nil {
			return 0, err
		}
		return d.MinMult + u*(d.MaxMult-d.MinMult), nil
	}
	if d.Target > 0 {
		return d.Target, nil
	}
	return 0, nil
}
