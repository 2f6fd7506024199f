package dto

type JoinRoundRequest struct {
	UserID      string  `json:"userId"`
	AmountCents int64   `json:"amount_cents"`
	AutoCashout float64 `json:"auto_cashout,omitempty"`
}

type CashoutRequest struct {
	UserID string `json:"userId"`
}
