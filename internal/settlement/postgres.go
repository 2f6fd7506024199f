package settlement

import (
	"context"
	"database/sql"
)

// PostgresStore grava a trilha de auditoria em banco.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// InsertAudit é idempotente por bet_id: reprocessar o mesmo evento do
// Kafka não duplica linha.
func (p *PostgresStore) InsertAudit(ctx context.Context, row *AuditRow) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settlement_audit
			(bet_id, user_id, game_id, amount_cents, payout_cents,
			 multiplier, win, forced, seed_valid, outcome, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (bet_id) DO NOTHING`,
		row.BetID, row.UserID, row.GameID, row.AmountCents, row.PayoutCents,
		row.Multiplier, row.Win, row.Forced, row.SeedValid, row.Outcome, row.SettledAt)
	return err
}
