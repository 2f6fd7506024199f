package dto

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId,omitempty"`
	BalanceCents int64  `json:"balance_cents"`
}

type MoveResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type LedgerEntryResponse struct {
	ID            string `json:"id"`
	OperationType string `json:"operation_type"`
	AmountCents   int64  `json:"amount_cents"`
	Reference     string `json:"reference"`
	CreatedAt     string `json:"created_at"`
}
