package topics

const (
	// Settlement
	BetSettled    = "bet_settled"
	BetSettledDLQ = "bet_settled_dlq"

	// Crash (jogo contínuo)
	RoundFinished = "round_finished"
)
