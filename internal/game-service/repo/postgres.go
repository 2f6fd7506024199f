package repo

import (
	"context"
	"database/sql"
	"encoding/json"
)

// Postgres implementa a persistência de apostas dos jogos instantâneos
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// NextNonce devolve o próximo sequence number de apostas do usuário.
// O nonce entra no hash do sorteio pra impedir replay do mesmo draw.
func (p *Postgres) NextNonce(ctx context.Context, userID string) (uint64, error) {
	var nonce uint64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO user_nonces (user_id, nonce) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET nonce = user_nonces.nonce + 1
		RETURNING nonce`, userID).Scan(&nonce)
	return nonce, err
}

// Create insere uma nova aposta com status PENDING
func (p *Postgres) Create(ctx context.Context, b *Bet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, user_id, game_id, amount_cents, currency, client_seed,
		                  server_secret, server_secret_hash, nonce, params, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'PENDING')`,
		b.ID, b.UserID, b.GameID, b.AmountCents, b.Currency, b.ClientSeed,
		b.ServerSecret, b.ServerSecretHash, b.Nonce, b.Params,
	)
	return err
}

// Get carrega a aposta pelo id
func (p *Postgres) Get(ctx context.Context, betID string) (*Bet, error) {
	var b Bet
	var outcome sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, game_id, amount_cents, currency, client_seed,
		       server_secret, server_secret_hash, nonce, params, outcome,
		       win, multiplier, profit_cents, status, created_at, resolved_at
		FROM bets WHERE id=$1`, betID).
		Scan(&b.ID, &b.UserID, &b.GameID, &b.AmountCents, &b.Currency, &b.ClientSeed,
			&b.ServerSecret, &b.ServerSecretHash, &b.Nonce, &b.Params, &outcome,
			&b.Win, &b.Multiplier, &b.ProfitCents, &b.Status, &b.CreatedAt, &b.ResolvedAt)
	if err != nil {
		return nil, err
	}
	if outcome.Valid {
		b.Outcome = json.RawMessage(outcome.String)
	}
	return &b, nil
}

// MarkResolved grava o resultado uma única vez. O WHERE por status é o
// guarda de idempotência: retorna false se a aposta já estava resolvida.
func (p *Postgres) MarkResolved(ctx context.Context, betID string, outcome json.RawMessage, win bool, multiplier float64, profitCents int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET outcome=$1, win=$2, multiplier=$3, profit_cents=$4,
		       status='RESOLVED', resolved_at=NOW()
		WHERE id=$5 AND status='PENDING'`,
		string(outcome), win, multiplier, profitCents, betID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Cancel marca uma aposta cujo débito de carteira falhou
func (p *Postgres) Cancel(ctx context.Context, betID string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE bets SET status='CANCELLED' WHERE id=$1 AND status='PENDING'`, betID)
	return err
}
