package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de domínio expostos via /metrics em cada serviço.
// Registrados no registry default do prometheus (promauto).
var (
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_bets_placed_total",
		Help: "Apostas criadas, por jogo.",
	}, []string{"game"})

	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_bets_settled_total",
		Help: "Apostas resolvidas, por jogo e resultado (win/lose).",
	}, []string{"game", "result"})

	OverridesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_overrides_applied_total",
		Help: "Diretivas de override aplicadas, por origem (global/user) e tipo.",
	}, []string{"source", "type"})

	UnreachableTargets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_override_unreachable_target_total",
		Help: "Alvos de multiplicador fora da tolerância, resolvidos pelo valor mais próximo.",
	}, []string{"game"})

	CrashRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casino_crash_rounds_total",
		Help: "Rodadas do jogo contínuo concluídas.",
	})
)
