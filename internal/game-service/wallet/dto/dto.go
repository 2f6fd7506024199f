package dto

// Shapes do wallet-service vistos pelo lado cliente.

type MoveRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"` // betID; garante idempotência no wallet
}

type MoveResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}
