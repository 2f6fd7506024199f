package events

// RoundFinished é publicado pelo crash-service quando uma rodada termina
// (fase Crashed), já com o server seed revelado para auditoria.
type RoundFinished struct {
	RoundID        string  `json:"round_id"`
	Sequence       uint64  `json:"sequence"`
	CrashPoint     float64 `json:"crash_point"`
	ServerSeed     string  `json:"server_seed"`
	ServerSeedHash string  `json:"server_seed_hash"`
	TotalBets      int     `json:"total_bets"`
	TotalCashouts  int     `json:"total_cashouts"`
	TsUnixMs       int64   `json:"ts_unix_ms"`
}
