package dto

import (
	"encoding/json"
	"time"
)

type PlaceBetResponse struct {
	BetID          string `json:"betId"`
	ServerSeedHash string `json:"serverSeedHash"`
	Status         string `json:"status"`
}

// BetResponse é o registro da aposta devolvido no GET e na resolução.
// O server seed só aparece depois do status RESOLVED.
type BetResponse struct {
	BetID          string          `json:"betId"`
	UserID         string          `json:"userId"`
	GameID         string          `json:"gameId"`
	AmountCents    int64           `json:"amount_cents"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	ServerSeedHash string          `json:"serverSeedHash"`
	ServerSeed     string          `json:"serverSeed,omitempty"`
	ClientSeed     string          `json:"clientSeed"`
	Nonce          uint64          `json:"nonce"`
	Win            bool            `json:"win"`
	Multiplier     float64         `json:"multiplier"`
	ProfitCents    int64           `json:"profit_cents"`
	Outcome        json.RawMessage `json:"outcome,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
}

type VerifyResponse struct {
	Result json.RawMessage `json:"result"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
