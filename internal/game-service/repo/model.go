package repo

import (
	"encoding/json"
	"time"
)

// Status das apostas. Uma aposta nunca muda depois de RESOLVED.
const (
	StatusPending   = "PENDING"
	StatusResolved  = "RESOLVED"
	StatusCancelled = "CANCELLED" // débito da carteira falhou; nada foi movimentado
)

// Bet é o modelo persistido no Postgres. O commitment de seed fica na
// própria linha: o hash é publicado na criação e o segredo só sai na
// resposta da resolução.
type Bet struct {
	ID               string
	UserID           string
	GameID           string
	AmountCents      int64
	Currency         string
	ClientSeed       string
	ServerSecret     string
	ServerSecretHash string
	Nonce            uint64
	Params           json.RawMessage
	Outcome          json.RawMessage
	Win              bool
	Multiplier       float64
	ProfitCents      int64
	Status           string
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}
