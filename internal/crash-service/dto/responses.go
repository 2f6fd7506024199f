package dto

import "time"

type JoinRoundResponse struct {
	BetID   string `json:"betId"`
	RoundID string `json:"roundId"`
}

type CashoutResponse struct {
	BetID       string  `json:"betId"`
	Multiplier  float64 `json:"multiplier"`
	PayoutCents int64   `json:"payout_cents"`
}

type RoundHistoryItem struct {
	RoundID        string    `json:"roundId"`
	Sequence       uint64    `json:"sequence"`
	CrashPoint     float64   `json:"crash_point"`
	ServerSeed     string    `json:"serverSeed"`
	ServerSeedHash string    `json:"serverSeedHash"`
	TotalBets      int       `json:"total_bets"`
	TotalCashouts  int       `json:"total_cashouts"`
	StartedAt      time.Time `json:"startedAt"`
	CrashedAt      time.Time `json:"crashedAt"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
