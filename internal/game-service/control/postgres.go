package control

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Postgres implementa Store sobre as tabelas global_controls (linha
// única), user_game_controls e control_consumptions.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) GetGlobal(ctx context.Context) (*GlobalControl, error) {
	var g GlobalControl
	var games pq.StringArray
	err := p.db.QueryRowContext(ctx, `
		SELECT force_all_lose, force_all_win, target_multiplier, use_exact_multiplier, affected_game_ids
		FROM global_controls WHERE id = 1`).
		Scan(&g.ForceAllLose, &g.ForceAllWin, &g.TargetMultiplier, &g.UseExactMultiplier, &games)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.AffectedGameIDs = games
	return &g, nil
}

func (p *Postgres) PutGlobal(ctx context.Context, g GlobalControl) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO global_controls (id, force_all_lose, force_all_win, target_multiplier, use_exact_multiplier, affected_game_ids, updated_at)
		VALUES (1,$1,$2,$3,$4,$5,NOW())
		ON CONFLICT (id) DO UPDATE SET
			force_all_lose=$1, force_all_win=$2, target_multiplier=$3,
			use_exact_multiplier=$4, affected_game_ids=$5, updated_at=NOW()`,
		g.ForceAllLose, g.ForceAllWin, g.TargetMultiplier, g.UseExactMultiplier, pq.StringArray(g.AffectedGameIDs))
	return err
}

func (p *Postgres) DeleteGlobal(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM global_controls WHERE id = 1`)
	return err
}

func (p *Postgres) GetUserGame(ctx context.Context, userID, gameID string) (*UserGameControl, error) {
	var u UserGameControl
	err := p.db.QueryRowContext(ctx, `
		SELECT user_id, game_id, force_outcome, outcome_type, target_multiplier, use_exact_multiplier,
		       min_multiplier, max_multiplier, near_miss_enabled, near_miss_value, duration_games, games_played
		FROM user_game_controls WHERE user_id=$1 AND game_id=$2`, userID, gameID).
		Scan(&u.UserID, &u.GameID, &u.ForceOutcome, &u.OutcomeType, &u.TargetMultiplier, &u.UseExactMultiplier,
			&u.MinMultiplier, &u.MaxMultiplier, &u.NearMissEnabled, &u.NearMissValue, &u.DurationGames, &u.GamesPlayed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) PutUserGame(ctx context.Context, u UserGameControl) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO user_game_controls
			(user_id, game_id, force_outcome, outcome_type, target_multiplier, use_exact_multiplier,
			 min_multiplier, max_multiplier, near_miss_enabled, near_miss_value, duration_games, games_played, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,NOW())
		ON CONFLICT (user_id, game_id) DO UPDATE SET
			force_outcome=$3, outcome_type=$4, target_multiplier=$5, use_exact_multiplier=$6,
			min_multiplier=$7, max_multiplier=$8, near_miss_enabled=$9, near_miss_value=$10,
			duration_games=$11, games_played=0, updated_at=NOW()`,
		u.UserID, u.GameID, u.ForceOutcome, u.OutcomeType, u.TargetMultiplier, u.UseExactMultiplier,
		u.MinMultiplier, u.MaxMultiplier, u.NearMissEnabled, u.NearMissValue, u.DurationGames)
	return err
}

func (p *Postgres) DeleteUserGame(ctx context.Context, userID, gameID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM user_game_controls WHERE user_id=$1 AND game_id=$2`, userID, gameID)
	return err
}

// ConsumeUserGame incrementa games_played no máximo uma vez por betID.
// A tabela control_consumptions (bet_id PK) é o guarda de idempotência;
// quando o contador alcança duration_games o registro é removido
// (semântica one-shot-per-N do controle).
func (p *Postgres) ConsumeUserGame(ctx context.Context, userID, gameID, betID string) (bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO control_consumptions (bet_id, user_id, game_id, created_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (bet_id) DO NOTHING`, betID, userID, gameID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// retry de um resolve já contabilizado
		return false, tx.Commit()
	}

	var played, duration int
	err = tx.QueryRowContext(ctx, `
		UPDATE user_game_controls SET games_played = games_played + 1, updated_at = NOW()
		WHERE user_id=$1 AND game_id=$2
		RETURNING games_played, duration_games`, userID, gameID).Scan(&played, &duration)
	if err == sql.ErrNoRows {
		return false, tx.Commit()
	}
	if err != nil {
		return false, err
	}

	if played >= duration {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_game_controls WHERE user_id=$1 AND game_id=$2`, userID, gameID); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}
