package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/shared/config"
	"github.com/radieske/casino-games-platform-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		walletURL = "http://localhost:8082"
	}
	gameURL := os.Getenv("GAME_URL")
	if gameURL == "" {
		gameURL = "http://localhost:8083"
	}
	crashURL := os.Getenv("CRASH_URL")
	if crashURL == "" {
		crashURL = "http://localhost:8084"
	}
	wallet := rp(walletURL)
	game := rp(gameURL)
	crash := rp(crashURL)

	mux := http.NewServeMux()

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	// jogos instantâneos (ex.: /api/bets/* e /api/verify -> game-service)
	mux.Handle("/api/bets/", http.StripPrefix("/api", game))
	mux.Handle("/api/verify", http.StripPrefix("/api", game))
	mux.Handle("/api/admin/", http.StripPrefix("/api", game))

	// rodada contínua (ex.: /api/round/* -> crash-service)
	// o WebSocket não passa pelo gateway; clientes conectam direto
	mux.Handle("/api/round/", http.StripPrefix("/api", crash))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
