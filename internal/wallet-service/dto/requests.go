package dto

// MoveRequest cobre debit, credit, deposit e withdraw. Reference é a
// chave de idempotência do movimento (betID nos jogos).
type MoveRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}
