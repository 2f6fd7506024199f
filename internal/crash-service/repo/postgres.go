package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/casino-games-platform-poc/internal/crash-service/round"
)

// Postgres persiste o histórico de rodadas encerradas.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) SaveRound(ctx context.Context, r *round.Round) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO crash_rounds
			(id, sequence, server_seed, server_seed_hash, crash_point,
			 total_bets, total_cashouts, started_at, crashed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Sequence, r.ServerSecret, r.ServerSecretHash, r.CrashPoint,
		r.TotalBets, r.TotalCashouts, r.StartedAt, r.CrashedAt)
	return err
}

// History devolve as últimas rodadas encerradas, mais novas antes.
// O seed já sai revelado: rodada encerrada é auditável por qualquer um.
func (p *Postgres) History(ctx context.Context, limit int) ([]round.Round, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, sequence, server_seed, server_seed_hash, crash_point,
		       total_bets, total_cashouts, started_at, crashed_at
		FROM crash_rounds
		ORDER BY crashed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []round.Round
	for rows.Next() {
		var r round.Round
		if err := rows.Scan(&r.ID, &r.Sequence, &r.ServerSecret, &r.ServerSecretHash,
			&r.CrashPoint, &r.TotalBets, &r.TotalCashouts, &r.StartedAt, &r.CrashedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
