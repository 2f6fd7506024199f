package control

import (
	"context"
	"math"
)

// Store é a persistência dos registros de override. A implementação
// Postgres vive neste pacote; testes usam fakes em memória.
type Store interface {
	GetGlobal(ctx context.Context) (*GlobalControl, error)
	PutGlobal(ctx context.Context, g GlobalControl) error
	DeleteGlobal(ctx context.Context) error

	GetUserGame(ctx context.Context, userID, gameID string) (*UserGameControl, error)
	PutUserGame(ctx context.Context, u UserGameControl) error
	DeleteUserGame(ctx context.Context, userID, gameID string) error

	// ConsumeUserGame incrementa games_played no máximo uma vez por
	// betID (idempotente sob retry). Retorna true se este betID causou
	// o incremento agora.
	ConsumeUserGame(ctx context.Context, userID, gameID, betID string) (bool, error)
}

// Controller decide, antes de um resultado ser computado, se o codec
// do jogo deve ser dirigido e com quais restrições.
type Controller struct {
	store Store
}

func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// Peek avalia a precedência de overrides sem efeito colateral nenhum.
// Ordem, de cima pra baixo, primeira que casa vence:
//  1. global force-all-lose
//  2. global force-all-win
//  3. controle por (usuário, jogo) ainda ativo
//  4. nil (caminho justo)
//
// O incremento de uso acontece só em Consume, chaveado pelo betID,
// então um resolve repetido nunca desconta duas vezes.
func (c *Controller) Peek(ctx context.Context, userID, gameID string) (*Directive, error) {
	g, err := c.store.GetGlobal(ctx)
	if err != nil {
		return nil, err
	}
	if g != nil && g.Affects(gameID) {
		if g.ForceAllLose {
			return &Directive{Type: OutcomeLose, Source: "global"}, nil
		}
		if g.ForceAllWin {
			return &Directive{
				Type:     OutcomeWin,
				UseExact: g.UseExactMultiplier,
				Target:   g.TargetMultiplier,
				Source:   "global",
			}, nil
		}
	}

	u, err := c.store.GetUserGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	if u != nil && u.Active() {
		return &Directive{
			Type:            u.OutcomeType,
			UseExact:        u.UseExactMultiplier,
			Target:          u.TargetMultiplier,
			MinMult:         u.MinMultiplier,
			MaxMult:         u.MaxMultiplier,
			NearMissEnabled: u.NearMissEnabled,
			NearMissValue:   u.NearMissValue,
			Source:          "user",
		}, nil
	}

	return nil, nil
}

// Consume registra o uso de uma diretiva pra aposta betID. Diretivas
// globais não têm contador; só as de usuário consomem.
func (c *Controller) Consume(ctx context.Context, d *Directive, userID, gameID, betID string) error {
	if d == nil || d.Source != "user" {
		return nil
	}
	_, err := c.store.ConsumeUserGame(ctx, userID, gameID, betID)
	return err
}

// ControlledCrashPoint ajusta o ponto natural de crash conforme a
// diretiva. Win força o ponto pra cima do alvo (nunca abaixo do
// natural); Lose devolve um near-miss perto de 1.0, usando o valor
// configurado quando houver. u é um uniform auditável do commitment
// da rodada.
func ControlledCrashPoint(d *Directive, natural, u float64) float64 {
	if d == nil {
		return natural
	}
	switch d.Type {
	case OutcomeLose:
		if d.NearMissEnabled && d.NearMissValue >= 1.0 {
			return round2(d.NearMissValue)
		}
		return round2(1.0 + u*0.2)
	case OutcomeWin:
		target := d.Target
		if !d.UseExact && d.MinMult > 0 && d.MaxMult >= d.MinMult {
			target = d.MinMult + u*(d.MaxMult-d.MinMult)
		}
		return round2(math.Max(natural, target))
	}
	return natural
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
