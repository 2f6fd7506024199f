package events

import "encoding/json"

// BetSettled é publicado pelo game-service (e pelo crash-service) após
// a resolução de uma aposta. O settlement-worker consome este evento
// para gravar a trilha de auditoria.
type BetSettled struct {
	BetID          string          `json:"bet_id"`
	UserID         string          `json:"user_id"`
	GameID         string          `json:"game_id"`
	AmountCents    int64           `json:"amount_cents"`
	PayoutCents    int64           `json:"payout_cents"`
	Multiplier     float64         `json:"multiplier"`
	Win            bool            `json:"win"`
	Forced         bool            `json:"forced"` // resultado dirigido por override
	ServerSeed     string          `json:"server_seed"`
	ServerSeedHash string          `json:"server_seed_hash"`
	Outcome        json.RawMessage `json:"outcome,omitempty"`
	TsUnixMs       int64           `json:"ts_unix_ms"`
}
