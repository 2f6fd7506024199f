package control

// OutcomeType indica pra que lado o resultado deve ser dirigido.
type OutcomeType string

const (
	OutcomeWin  OutcomeType = "WIN"
	OutcomeLose OutcomeType = "LOSE"
)

// GlobalControl é o registro singleton configurado pelo operador.
// Afeta todos os usuários; a lista de jogos vazia significa "todos".
type GlobalControl struct {
	ForceAllLose       bool     `json:"force_all_lose"`
	ForceAllWin        bool     `json:"force_all_win"`
	TargetMultiplier   float64  `json:"target_multiplier"`
	UseExactMultiplier bool     `json:"use_exact_multiplier"`
	AffectedGameIDs    []string `json:"affected_game_ids"`
}

// Affects responde se o controle global alcança o jogo informado.
func (g *GlobalControl) Affects(gameID string) bool {
	if len(g.AffectedGameIDs) == 0 {
		return true
	}
	for _, id := range g.AffectedGameIDs {
		if id == gameID {
			return true
		}
	}
	return false
}

// UserGameControl é o registro por (usuário, jogo) com semântica
// one-shot-per-N: vale por DurationGames apostas e expira sozinho.
// Invariante: GamesPlayed <= DurationGames.
type UserGameControl struct {
	UserID             string      `json:"user_id"`
	GameID             string      `json:"game_id"`
	ForceOutcome       bool        `json:"force_outcome"`
	OutcomeType        OutcomeType `json:"outcome_type"`
	TargetMultiplier   float64     `json:"target_multiplier"`
	UseExactMultiplier bool        `json:"use_exact_multiplier"`
	MinMultiplier      float64     `json:"min_multiplier"`
	MaxMultiplier      float64     `json:"max_multiplier"`
	NearMissEnabled    bool        `json:"near_miss_enabled"`
	NearMissValue      float64     `json:"near_miss_value"`
	DurationGames      int         `json:"duration_games"`
	GamesPlayed        int         `json:"games_played"`
}

// Active responde se o controle ainda tem usos restantes.
func (u *UserGameControl) Active() bool {
	return u.ForceOutcome && u.GamesPlayed < u.DurationGames
}

// Directive é a instrução que os codecs recebem antes de computar um
// resultado. Source identifica a origem ("global" ou "user"): só
// diretivas de usuário consomem contador.
type Directive struct {
	Type            OutcomeType
	UseExact        bool
	Target          float64
	MinMult         float64
	MaxMult         float64
	NearMissEnabled bool
	NearMissValue   float64
	Source          string
}
