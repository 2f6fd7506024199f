package dto

import "github.com/radieske/casino-games-platform-poc/internal/game-service/games"

type PlaceBetRequest struct {
	UserID      string       `json:"userId"`
	GameID      string       `json:"gameId"`
	AmountCents int64        `json:"amount_cents"`
	Currency    string       `json:"currency,omitempty"`
	ClientSeed  string       `json:"clientSeed"`
	Options     games.Params `json:"options"`
}

type CompleteBetRequest struct {
	// opções decididas durante o jogo (picks do mines, etc);
	// quando ausente valem as opções da criação
	Options *games.Params `json:"options,omitempty"`
}

type VerifyRequest struct {
	ServerSeed     string       `json:"serverSeed"`
	ServerSeedHash string       `json:"serverSeedHash,omitempty"`
	ClientSeed     string       `json:"clientSeed"`
	Nonce          uint64       `json:"nonce"`
	GameType       string       `json:"gameType"`
	Options        games.Params `json:"options"`
}
